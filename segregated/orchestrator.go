package segregated

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notargets/insfv/bcs"
	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/insfv"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/solver"
	"github.com/notargets/insfv/types"
)

type Params struct {
	Mu, Rho         float64
	Relaxation      float64 // Velocity corrector under relaxation, in (0,1]
	VelocityInterp  string  // average or rc
	AdvectedInterp  string  // average or upwind
	OuterIterations int
	ParallelDegree  int
	Transient       bool    // Adds rho*(u - u_adv)/dt to the momentum predictor
	Dt              float64 // Pseudo time step of the transient term
	InitialVelocity [3]float64
	InitialPressure float64
	Momentum        solver.Params
	Pressure        solver.Params

	// Implicit momentum under relaxation, in (0,1], one disables
	MomentumRelaxation float64
}

func DefaultParams() Params {
	return Params{
		Mu:              1,
		Rho:             1,
		Relaxation:         0.8,
		MomentumRelaxation: 0.7,
		VelocityInterp:     "rc",
		AdvectedInterp:     "upwind",
		OuterIterations:    10,
		ParallelDegree:     4,
		Momentum:           solver.DefaultParams(),
		Pressure:           solver.DefaultParams(),
	}
}

/*
Orchestrator runs the outer SIMPLE iterations. The momentum sub-problem owns the predicted
velocity u_star with the advecting velocity u_adv and the pressure frozen, the pressure
sub-problem owns the pressure and writes the corrected velocity back into u_adv. Every field
moves between the two through the coupling records, never by sharing storage.
*/
type Orchestrator struct {
	Params Params
	Dim    int
	Mesh   *mesh.Mesh
	Logger *zap.Logger

	MomentumFields, PressureFields *fields.Storage
	MomentumSession                *insfv.Session
	PressureSession                *insfv.Session
	Coupling                       *Coupling

	momentum   [3]*insfv.Momentum // Predictor kernels with the pressure term
	transport  [3]*insfv.Momentum // The same without the pressure term, for RHS
	momSystems [3]*insfv.System
	predictor  *insfv.PressurePredictor
	massFlux   *insfv.BoundaryMassFlux
	pSystem    *insfv.System
	corrector  *insfv.VelocityCorrector
	newton     *solver.Newton
	iteration  int
}

// StepResult is the outcome of one outer iteration
type StepResult struct {
	Iteration int
	Momentum  [3]solver.Result
	Pressure  solver.Result
	// Max norm of the face mass balance of the predicted velocity, before and after the pressure solve
	MassImbalanceBefore, MassImbalanceAfter float64
	ElapsedTime                             time.Duration
}

func NewOrchestrator(m *mesh.Mesh, reg *bcs.Registry, p Params, logger *zap.Logger) (o *Orchestrator, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m.Dim < 1 || m.Dim > 3 {
		return nil, types.NewConfigurationError("orchestrator", "dim", "unsupported dimension %d", m.Dim)
	}
	if p.OuterIterations < 1 {
		return nil, types.NewConfigurationError("orchestrator", "outer_iterations",
			"at least one outer iteration is required, have %d", p.OuterIterations)
	}
	if !(p.MomentumRelaxation > 0 && p.MomentumRelaxation <= 1) {
		return nil, types.NewConfigurationError("orchestrator", "momentum_relaxation",
			"momentum relaxation %g is not in (0,1]", p.MomentumRelaxation)
	}
	o = &Orchestrator{
		Params:         p,
		Dim:            m.Dim,
		Mesh:           m,
		MomentumFields: fields.NewStorage(m, reg),
		PressureFields: fields.NewStorage(m, reg),
	}
	o.MomentumSession = insfv.NewSession(p.ParallelDegree, m.NumElements, logger.Named("momentum"))
	o.PressureSession = insfv.NewSession(p.ParallelDegree, m.NumElements, logger.Named("pressure"))
	o.Logger = logger.With(zap.String("momentum_session", o.MomentumSession.ID.String()),
		zap.String("pressure_session", o.PressureSession.ID.String()))
	o.addFields()
	if o.Coupling, err = NewCoupling(o.Dim, o.MomentumFields, o.PressureFields); err != nil {
		return nil, err
	}
	if err = o.buildMomentum(); err != nil {
		return nil, err
	}
	if err = o.buildPressure(); err != nil {
		return nil, err
	}
	o.newton = solver.NewNewton(p.Momentum, o.Logger)
	o.initialize()
	return
}

// addFields creates the same exchange set on both sides, each side only writes its own outputs
func (o *Orchestrator) addFields() {
	for _, st := range []*fields.Storage{o.MomentumFields, o.PressureFields} {
		for i := 0; i < o.Dim; i++ {
			st.MustAdd(StarNames[i], fields.KindVelocity)
			st.MustAdd(AdvNames[i], fields.KindVelocity)
			st.MustAdd(AinvNames[i], fields.KindAuxiliary)
			st.MustAdd(HuNames[i], fields.KindAuxiliary)
			st.MustAdd(RHSNames[i], fields.KindAuxiliary)
		}
		st.MustAdd(Pressure, fields.KindPressure)
		st.MustAdd(PressureOld, fields.KindAuxiliary)
	}
}

func (o *Orchestrator) momentumParams(i int, pressureTerm bool) insfv.MomentumParams {
	var (
		comps = [3]string{"x", "y", "z"}
		name  = "ins_momentum_" + comps[i]
		p     = o.Params
	)
	if !pressureTerm {
		name += "_transport"
	}
	mp := insfv.MomentumParams{
		Name:           name,
		Component:      comps[i],
		Variable:       StarNames[i],
		Pressure:       Pressure,
		Mu:             fields.Constant(p.Mu),
		Rho:            fields.Constant(p.Rho),
		VelocityInterp: p.VelocityInterp,
		AdvectedInterp: p.AdvectedInterp,
		PressureTerm:   pressureTerm,
		Transient:      p.Transient,
		Dt:             p.Dt,
		Relaxation:     p.MomentumRelaxation,
	}
	copy(mp.Velocity[:o.Dim], AdvNames[:o.Dim])
	return mp
}

func (o *Orchestrator) buildMomentum() (err error) {
	as := insfv.NewAssembler(o.MomentumSession, o.Mesh)
	for i := 0; i < o.Dim; i++ {
		if o.momentum[i], err = insfv.NewMomentum(o.MomentumSession, o.MomentumFields,
			o.momentumParams(i, true)); err != nil {
			return
		}
		if o.transport[i], err = insfv.NewMomentum(o.MomentumSession, o.MomentumFields,
			o.momentumParams(i, false)); err != nil {
			return
		}
		if o.momSystems[i], err = insfv.NewSystem(o.momentum[i].Name(), as,
			o.momentum[i].Variable(), 1, o.momentum[i]); err != nil {
			return
		}
	}
	return
}

func (o *Orchestrator) buildPressure() (err error) {
	pp := insfv.PressureParams{
		Name:     "p_predictor",
		Pressure: Pressure,
	}
	cp := insfv.CorrectorParams{
		Name:        "velocity_corrector",
		Pressure:    Pressure,
		PressureOld: PressureOld,
		Relaxation:  o.Params.Relaxation,
	}
	for i := 0; i < o.Dim; i++ {
		pp.Ainv[i], pp.Hu[i] = AinvNames[i], HuNames[i]
		cp.Velocity[i], cp.Star[i], cp.Ainv[i] = AdvNames[i], StarNames[i], AinvNames[i]
	}
	if o.predictor, err = insfv.NewPressurePredictor(o.PressureFields, pp); err != nil {
		return
	}
	var star [3]string
	copy(star[:o.Dim], StarNames[:o.Dim])
	if o.massFlux, err = insfv.NewBoundaryMassFlux(o.PressureFields, "p_boundary_mass_flux",
		Pressure, star); err != nil {
		return
	}
	as := insfv.NewAssembler(o.PressureSession, o.Mesh)
	if o.pSystem, err = insfv.NewSystem(pp.Name, as, o.predictor.Variable(), 2,
		o.predictor, o.massFlux); err != nil {
		return
	}
	o.corrector, err = insfv.NewVelocityCorrector(o.PressureSession, o.PressureFields, cp)
	return
}

func (o *Orchestrator) initialize() {
	for _, st := range []*fields.Storage{o.MomentumFields, o.PressureFields} {
		for i := 0; i < o.Dim; i++ {
			for _, name := range []string{StarNames[i], AdvNames[i]} {
				f, _ := st.Get(name)
				f.Fill(o.Params.InitialVelocity[i])
			}
		}
		f, _ := st.Get(Pressure)
		f.Fill(o.Params.InitialPressure)
	}
}

// Field returns a field of the momentum sub-problem, which holds the latest corrected state
func (o *Orchestrator) Field(name string) (*fields.Field, bool) {
	return o.MomentumFields.Get(name)
}

func (o *Orchestrator) Step() (res StepResult, err error) {
	start := time.Now()
	o.iteration++
	res.Iteration = o.iteration
	logger := o.Logger.With(zap.Int("iter", o.iteration))
	if err = o.predictMomentum(&res); err != nil {
		return res, fmt.Errorf("outer iteration %d, momentum: %w", o.iteration, err)
	}
	if err = o.exchangeMomentum(); err != nil {
		return res, fmt.Errorf("outer iteration %d, momentum exchange: %w", o.iteration, err)
	}
	if err = o.Coupling.Momentum.Transfer(); err != nil {
		return res, fmt.Errorf("outer iteration %d: %w", o.iteration, err)
	}
	o.newton.Params = o.Params.Pressure
	if res.Pressure, err = o.newton.Solve(o.predictor.Name(), o.pSystem); err != nil {
		return res, fmt.Errorf("outer iteration %d, pressure: %w", o.iteration, err)
	}
	res.MassImbalanceBefore, res.MassImbalanceAfter = res.Pressure.InitialNorm, res.Pressure.FinalNorm
	if err = o.corrector.Correct(); err != nil {
		return res, fmt.Errorf("outer iteration %d, corrector: %w", o.iteration, err)
	}
	if err = o.Coupling.Pressure.Transfer(); err != nil {
		return res, fmt.Errorf("outer iteration %d: %w", o.iteration, err)
	}
	res.ElapsedTime = time.Since(start)
	logFields := []zap.Field{
		zap.Float64("mass_before", res.MassImbalanceBefore),
		zap.Float64("mass_after", res.MassImbalanceAfter),
		zap.Duration("elapsed", res.ElapsedTime),
	}
	for i := 0; i < o.Dim; i++ {
		logFields = append(logFields, zap.Float64("momentum_"+StarNames[i], res.Momentum[i].InitialNorm))
	}
	logger.Info("outer iteration", logFields...)
	return
}

// predictMomentum solves every component with the advecting velocity and the pressure frozen
func (o *Orchestrator) predictMomentum(res *StepResult) (err error) {
	o.newton.Params = o.Params.Momentum
	for i := 0; i < o.Dim; i++ {
		var (
			star, _ = o.MomentumFields.Get(StarNames[i])
			adv, _  = o.MomentumFields.Get(AdvNames[i])
		)
		if err = star.CopyFrom(adv); err != nil {
			return
		}
		if o.Params.Transient || o.Params.MomentumRelaxation < 1 {
			star.SaveOld()
		}
	}
	for i := 0; i < o.Dim; i++ {
		if res.Momentum[i], err = o.newton.Solve(o.momentum[i].Name(), o.momSystems[i]); err != nil {
			return
		}
	}
	return
}

/*
exchangeMomentum fills Ainv = V/a, RHS, the transport residual at u_star, and
Hu = (RHS - a*u_star)/a for every component, then snapshots the pressure.
*/
func (o *Orchestrator) exchangeMomentum() (err error) {
	var (
		m       = o.Mesh
		as      = insfv.NewAssembler(o.MomentumSession, m)
		r       = make([]types.ADReal, m.NumElements)
		pOld, _ = o.MomentumFields.Get(PressureOld)
		p, _    = o.MomentumFields.Get(Pressure)
	)
	for i := 0; i < o.Dim; i++ {
		var (
			star, _ = o.MomentumFields.Get(StarNames[i])
			ainv, _ = o.MomentumFields.Get(AinvNames[i])
			hu, _   = o.MomentumFields.Get(HuNames[i])
			rhs, _  = o.MomentumFields.Get(RHSNames[i])
			k       = o.transport[i]
		)
		if err = as.Residual([]insfv.FluxKernel{k}, r); err != nil {
			return
		}
		comp := i
		err = o.MomentumSession.Partitions.RunPartitioned(func(tid, kMin, kMax int) error {
			for elem := kMin; elem < kMax; elem++ {
				a, err := k.Coefficient(tid, elem)
				if err != nil {
					return err
				}
				if a[comp].Real == 0 {
					return types.NewInvariantViolation("segregated.exchangeMomentum",
						"zero momentum coefficient in component %d of element %d", comp, elem)
				}
				rhs.Values[elem] = r[elem].Real
				ainv.Values[elem] = m.Volumes[elem] * m.ElemCoord(elem) / a[comp].Real
				hu.Values[elem] = (rhs.Values[elem] - a[comp].Real*star.Values[elem]) / a[comp].Real
			}
			return nil
		})
		if err != nil {
			return
		}
		ainv.Invalidate()
		hu.Invalidate()
		rhs.Invalidate()
	}
	return pOld.CopyFrom(p)
}

// Run performs the configured number of outer iterations
func (o *Orchestrator) Run() (results []StepResult, err error) {
	for it := 0; it < o.Params.OuterIterations; it++ {
		var res StepResult
		if res, err = o.Step(); err != nil {
			return
		}
		results = append(results, res)
	}
	return
}
