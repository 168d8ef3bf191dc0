package insfv

import (
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notargets/insfv/types"
	"github.com/notargets/insfv/utils"
)

/*
Session is one solve. It owns the coefficient cache shared by the momentum kernels and the
element partitioning used by every assembly pass, so independent sessions in one process
never see each other's coefficients.
*/
type Session struct {
	ID           uuid.UUID
	Partitions   *utils.PartitionMap
	Cache        *CoefficientCache
	Logger       *zap.Logger
	calcAttached *CoefficientCalculator
}

func NewSession(parallelDegree, numElements int, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		ID:         uuid.New(),
		Partitions: utils.NewPartitionMap(parallelDegree, numElements),
	}
	s.Logger = logger.With(zap.String("session", s.ID.String()))
	return s
}

func (s *Session) ParallelDegree() int { return s.Partitions.ParallelDegree }

// AttachCalculator creates the cache on first use, later kernels must bring an equivalent calculator
func (s *Session) AttachCalculator(object string, calc *CoefficientCalculator) (err error) {
	if s.calcAttached == nil {
		s.calcAttached = calc
		s.Cache = NewCoefficientCache(s.ParallelDegree(), calc.Coefficient)
		return
	}
	if !s.calcAttached.Equivalent(calc) {
		return types.NewConfigurationError(object, "u",
			"momentum kernels sharing a session must use the same advecting velocity, "+
				"viscosity, density and advected interpolation")
	}
	return
}

/*
CoefficientCache memoizes the Rhie-Chow coefficient of each element. There is one bucket per
worker, a worker only ever touches its own bucket so there are no locks. Entries live until
the bucket is cleared, which has to happen at the start of every assembly pass.
*/
type CoefficientCache struct {
	buckets      []map[int]types.ADVector
	compute      func(elem int) (types.ADVector, error)
	computations atomic.Int64
}

func NewCoefficientCache(nThreads int, compute func(elem int) (types.ADVector, error)) *CoefficientCache {
	cc := &CoefficientCache{
		buckets: make([]map[int]types.ADVector, nThreads),
		compute: compute,
	}
	for tid := range cc.buckets {
		cc.buckets[tid] = make(map[int]types.ADVector)
	}
	return cc
}

func (cc *CoefficientCache) bucket(where string, tid int) (map[int]types.ADVector, error) {
	if tid < 0 || tid >= len(cc.buckets) {
		return nil, types.NewInvariantViolation(where,
			"no coefficient bucket for thread %d, have %d buckets", tid, len(cc.buckets))
	}
	return cc.buckets[tid], nil
}

// Lookup returns the cached coefficient, computing it on the first lookup of this generation
func (cc *CoefficientCache) Lookup(tid, elem int) (coeff types.ADVector, err error) {
	var b map[int]types.ADVector
	if b, err = cc.bucket("CoefficientCache.Lookup", tid); err != nil {
		return
	}
	var ok bool
	if coeff, ok = b[elem]; ok {
		return
	}
	cc.computations.Add(1)
	if coeff, err = cc.compute(elem); err != nil {
		return
	}
	b[elem] = coeff
	return
}

func (cc *CoefficientCache) Clear(tid int) (err error) {
	var b map[int]types.ADVector
	if b, err = cc.bucket("CoefficientCache.Clear", tid); err != nil {
		return
	}
	clear(b)
	return
}

func (cc *CoefficientCache) ClearAll() {
	for _, b := range cc.buckets {
		clear(b)
	}
}

// Computations counts coefficient evaluations since the cache was made
func (cc *CoefficientCache) Computations() int64 { return cc.computations.Load() }

// Len is the number of entries in one bucket
func (cc *CoefficientCache) Len(tid int) int {
	if tid < 0 || tid >= len(cc.buckets) {
		return 0
	}
	return len(cc.buckets[tid])
}
