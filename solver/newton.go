package solver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/insfv/types"
	"github.com/notargets/insfv/utils"
)

// Problem is a residual over one element field, evaluated with dual numbers
type Problem interface {
	Graph
	Values() []float64
	SetSeeds(seeds []float64) // nil removes the seeds
	Residual(r []types.ADReal) error
	StencilRadius() int
	Update(delta []float64)
}

type Params struct {
	MaxIterations int
	AbsTol        float64 // Converged when the max norm of the residual is at or below AbsTol
	RelTol        float64 // or when it has dropped by this factor from the first iteration
}

func DefaultParams() Params {
	return Params{
		MaxIterations: 20,
		AbsTol:        1.e-10,
		RelTol:        1.e-8,
	}
}

type Result struct {
	Iterations   int
	InitialNorm  float64
	FinalNorm    float64
	Converged    bool
	ElapsedTime  time.Duration
	NumColors    int
	JacobianNNZ  int
	ResidualNorm []float64 // Max norm before each iteration and after the last one

	// Largest max norm of J*delta + R over the linear solves
	LinearResidual float64
}

/*
Newton solves R(x) = 0. The Jacobian is assembled one color at a time, the seeds of every
element of the color are set to one and the derivative part of each residual row in that
element's stencil is its Jacobian entry. The linear system is solved by LU.
*/
type Newton struct {
	Params Params
	Logger *zap.Logger

	colorings map[Problem]*Coloring
}

func NewNewton(p Params, logger *zap.Logger) *Newton {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Newton{
		Params:    p,
		Logger:    logger,
		colorings: make(map[Problem]*Coloring),
	}
}

func (nt *Newton) coloring(p Problem) *Coloring {
	c, ok := nt.colorings[p]
	if !ok || c.Radius != p.StencilRadius() {
		c = NewColoring(p, p.StencilRadius())
		nt.colorings[p] = c
	}
	return c
}

func (nt *Newton) Solve(name string, p Problem) (res Result, err error) {
	var (
		n      = p.Size()
		r      = make([]types.ADReal, n)
		rv     = make([]float64, n)
		start  = time.Now()
		logger = nt.Logger.With(zap.String("system", name))
		c      = nt.coloring(p)
	)
	res.NumColors = c.NumColors()
	p.SetSeeds(nil)
	if res.InitialNorm, err = residualNorm(p, r, rv); err != nil {
		return
	}
	res.FinalNorm = res.InitialNorm
	res.ResidualNorm = append(res.ResidualNorm, res.InitialNorm)
	for res.Iterations < nt.Params.MaxIterations {
		if nt.converged(res.FinalNorm, res.InitialNorm) {
			break
		}
		var jac utils.CSR
		if jac, err = nt.jacobian(p, c, r); err != nil {
			return
		}
		res.JacobianNNZ = jac.NNZ()
		var delta []float64
		if delta, err = nt.linearSolve(logger, jac, rv); err != nil {
			return res, fmt.Errorf("%s iteration %d: %w", name, res.Iterations, err)
		}
		lin := jac.MulVec(delta)
		floats.Add(lin, rv)
		res.LinearResidual = math.Max(res.LinearResidual, floats.Norm(lin, math.Inf(1)))
		p.Update(delta)
		res.Iterations++
		if res.FinalNorm, err = residualNorm(p, r, rv); err != nil {
			return
		}
		res.ResidualNorm = append(res.ResidualNorm, res.FinalNorm)
		logger.Debug("newton iteration",
			zap.Int("iter", res.Iterations), zap.Float64("residual", res.FinalNorm),
			zap.Float64("linear_residual", res.LinearResidual))
	}
	res.Converged = nt.converged(res.FinalNorm, res.InitialNorm)
	res.ElapsedTime = time.Since(start)
	logger.Info("newton solve",
		zap.Int("iterations", res.Iterations), zap.Float64("initial", res.InitialNorm),
		zap.Float64("residual", res.FinalNorm), zap.Bool("converged", res.Converged),
		zap.Int("colors", res.NumColors), zap.Duration("elapsed", res.ElapsedTime))
	if !res.Converged {
		err = fmt.Errorf("%s did not converge in %d iterations, residual %g",
			name, res.Iterations, res.FinalNorm)
	}
	return
}

func (nt *Newton) converged(norm, initial float64) bool {
	return norm <= nt.Params.AbsTol || norm <= nt.Params.RelTol*initial
}

// residualNorm evaluates R without seeds, leaving the values in rv
func residualNorm(p Problem, r []types.ADReal, rv []float64) (norm float64, err error) {
	if err = p.Residual(r); err != nil {
		return
	}
	for k := range r {
		rv[k] = r[k].Real
	}
	return floats.Norm(rv, math.Inf(1)), nil
}

func (nt *Newton) jacobian(p Problem, c *Coloring, r []types.ADReal) (jac utils.CSR, err error) {
	var (
		n     = p.Size()
		dok   = utils.NewDOK(n, n)
		seeds = make([]float64, n)
	)
	for _, members := range c.Colors {
		for k := range seeds {
			seeds[k] = 0
		}
		for _, j := range members {
			seeds[j] = 1
		}
		p.SetSeeds(seeds)
		if err = p.Residual(r); err != nil {
			p.SetSeeds(nil)
			return
		}
		for _, j := range members {
			for _, k := range Ball(p, j, c.Radius) {
				if d := r[k].Emag; d != 0 {
					dok.AddTo(k, j, d)
				}
			}
		}
	}
	p.SetSeeds(nil)
	jac = dok.SetReadOnly("jacobian").ToCSR()
	return
}

func (nt *Newton) linearSolve(logger *zap.Logger, jac utils.CSR, rv []float64) (delta []float64, err error) {
	var (
		lu  mat.LU
		x   mat.VecDense
		rhs = make([]float64, len(rv))
	)
	floats.ScaleTo(rhs, -1, rv)
	lu.Factorize(jac.ToDense())
	if err = lu.SolveVecTo(&x, false, mat.NewVecDense(len(rhs), rhs)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("singular jacobian: %w", err)
		}
		logger.Warn("ill conditioned jacobian", zap.Float64("condition", float64(cond)))
	}
	return x.RawVector().Data, nil
}
