package insfv

import (
	"math"
	"strings"

	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// VelocityInterp selects how the advecting velocity reaches a face
type VelocityInterp uint8

const (
	AverageVelocity VelocityInterp = iota
	RhieChow
)

func (vi VelocityInterp) String() string {
	if vi == RhieChow {
		return "rc"
	}
	return "average"
}

func ParseVelocityInterp(object, name string) (VelocityInterp, error) {
	switch strings.TrimSpace(name) {
	case "average":
		return AverageVelocity, nil
	case "", "rc":
		return RhieChow, nil
	}
	return RhieChow, types.NewConfigurationError(object, "velocity_interp_method",
		"unrecognized interpolation type [%s], use average or rc", name)
}

// ParseComponent maps x, y and z to a vector index
func ParseComponent(object, name string) (int, error) {
	switch strings.TrimSpace(name) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, types.NewConfigurationError(object, "momentum_component",
		"unknown momentum component [%s], use x, y or z", name)
}

/*
MomentumParams configures one momentum predictor component. Velocity names the advecting
velocity, which stays frozen during the momentum solve, Variable is the transported unknown.
The pressure, transient and relaxation terms are off unless enabled here.
*/
type MomentumParams struct {
	Name           string
	Component      string // x, y or z
	Variable       string
	Velocity       [3]string // u, v, w
	Pressure       string
	Mu, Rho        fields.Functor
	VelocityInterp string // average or rc
	AdvectedInterp string // average or upwind
	Subdomains     []int  // Empty selects the whole mesh
	ADIndexing     types.ADIndexing

	// Flux kernel execution is controlled by the boundary categories alone
	ForceBoundaryExecution bool
	BoundariesToForce      []string

	PressureTerm bool    // Adds the face pressure flux p_f*n_i
	Transient    bool    // Adds rho*(phi - phi_old)/dt*V
	Dt           float64 // Time step of the transient term

	// Implicit under relaxation, adds (1-alpha)/alpha*a*(phi - phi_old), zero or one disables
	Relaxation float64
}

// Momentum is the convection and diffusion residual of one velocity component
type Momentum struct {
	Params     MomentumParams
	Index      int
	Dim        int
	Classifier *BoundaryClassifier

	session        *Session
	m              *mesh.Mesh
	variable       *fields.Field
	velocity       [3]*fields.Field
	pressure       *fields.Field
	velocityInterp VelocityInterp
	advected       fields.Limiter
	calc           *CoefficientCalculator
}

func NewMomentum(sess *Session, st *fields.Storage, p MomentumParams) (k *Momentum, err error) {
	k = &Momentum{
		Params:  p,
		Dim:     st.Mesh.Dim,
		session: sess,
		m:       st.Mesh,
	}
	if err = types.CheckADIndexing(p.Name, p.ADIndexing); err != nil {
		return nil, err
	}
	if p.ForceBoundaryExecution {
		return nil, types.NewConfigurationError(p.Name, "force_boundary_execution",
			"do not use force_boundary_execution to control execution of INSFV advection objects")
	}
	if len(p.BoundariesToForce) != 0 {
		return nil, types.NewConfigurationError(p.Name, "boundaries_to_force",
			"do not use boundaries_to_force to control execution of INSFV advection objects")
	}
	if k.Index, err = ParseComponent(p.Name, p.Component); err != nil {
		return nil, err
	}
	if k.Index >= k.Dim {
		return nil, types.NewConfigurationError(p.Name, "momentum_component",
			"component %s does not exist on a %dD mesh", p.Component, k.Dim)
	}
	if k.pressure, err = st.Require(p.Name, "pressure", p.Pressure, fields.KindPressure); err != nil {
		return nil, err
	}
	params := [3]string{"u", "v", "w"}
	for i := 0; i < k.Dim; i++ {
		if len(p.Velocity[i]) == 0 {
			if i == 0 {
				return nil, types.NewConfigurationError(p.Name, params[i], "the u velocity must be supplied")
			}
			return nil, types.NewConfigurationError(p.Name, params[i],
				"in %d dimensions the %s velocity must be supplied", k.Dim, params[i])
		}
		if k.velocity[i], err = st.Require(p.Name, params[i], p.Velocity[i], fields.KindVelocity); err != nil {
			return nil, err
		}
	}
	if k.variable, err = st.Require(p.Name, "variable", p.Variable, fields.KindVelocity); err != nil {
		return nil, err
	}
	if k.velocityInterp, err = ParseVelocityInterp(p.Name, p.VelocityInterp); err != nil {
		return nil, err
	}
	if k.advected, err = fields.ParseLimiter(p.Name, "advected_interp_method", p.AdvectedInterp); err != nil {
		return nil, err
	}
	if p.Mu == nil || p.Rho == nil {
		return nil, types.NewConfigurationError(p.Name, "mu", "viscosity and density are required")
	}
	if p.Transient && p.Dt <= 0 {
		return nil, types.NewConfigurationError(p.Name, "dt", "the transient term needs a positive time step")
	}
	if p.Relaxation < 0 || p.Relaxation > 1 || math.IsNaN(p.Relaxation) {
		return nil, types.NewConfigurationError(p.Name, "momentum_relaxation",
			"relaxation factor %g is not in (0,1]", p.Relaxation)
	}

	// Boundaries are classified once, before any residual
	var (
		bids      = k.m.SubdomainBoundaryIDs(p.Subdomains)
		variables = append([]string{p.Variable, p.Pressure}, p.Velocity[:k.Dim]...)
	)
	k.Classifier = NewBoundaryClassifier(p.Name)
	if err = k.Classifier.Classify(k.m, st.BCs, bids, variables...); err != nil {
		return nil, err
	}
	if err = k.Classifier.VerifyCoverage(k.m, bids); err != nil {
		return nil, err
	}
	k.calc = &CoefficientCalculator{
		Mesh:       k.m,
		Classifier: k.Classifier,
		Velocity:   k.velocity,
		Mu:         p.Mu,
		Rho:        p.Rho,
		Advected:   k.advected,
		Dim:        k.Dim,
	}
	if err = sess.AttachCalculator(p.Name, k.calc); err != nil {
		return nil, err
	}
	return
}

func (k *Momentum) Name() string               { return k.Params.Name }
func (k *Momentum) Variable() *fields.Field    { return k.variable }
func (k *Momentum) Pressure() *fields.Field    { return k.pressure }
func (k *Momentum) Session() *Session          { return k.session }
func (k *Momentum) Interp() VelocityInterp     { return k.velocityInterp }
func (k *Momentum) Advected() fields.Limiter   { return k.advected }
func (k *Momentum) Velocity() [3]*fields.Field { return k.velocity }

// Prepare starts a new assembly pass, stale coefficients are dropped here
func (k *Momentum) Prepare() error {
	k.session.Cache.ClearAll()
	if k.velocityInterp == RhieChow || k.Params.PressureTerm {
		k.pressure.PrepareGradients()
	}
	return nil
}

/*
SkipForBoundary is false on interior faces and on flow boundaries, mass and momentum are
advected across those. Elsewhere there is no flow normal to the boundary and the kernel only
runs where the variable has a value condition.
*/
func (k *Momentum) SkipForBoundary(fi *mesh.FaceInfo) bool {
	if !fi.IsBoundary() {
		return false
	}
	if k.Classifier.Flow[fi.BoundaryID] {
		return false
	}
	_, ok := k.variable.Dirichlet(fi)
	return !ok
}

/*
InterpolateVelocity returns the advecting velocity on a face. Boundary faces return the
boundary value. Interior faces average the two cells and, for Rhie-Chow, subtract
D_f*(grad p - averaged grad p) per component, with D = V*coord/a from the cached coefficients.
*/
func (k *Momentum) InterpolateVelocity(tid int, method VelocityInterp,
	fi *mesh.FaceInfo) (v types.ADVector, err error) {
	if fi.IsBoundary() {
		if !k.Classifier.Flow[fi.BoundaryID] {
			if _, ok := k.velocity[0].Dirichlet(fi); !ok {
				return v, types.NewInvariantViolation(k.Params.Name+".InterpolateVelocity",
					"velocity interpolation on boundary %s, which is neither a flow boundary "+
						"nor carries a velocity value", k.m.BoundaryName(fi.BoundaryID))
			}
		}
		return k.calc.boundaryVelocity(fi), nil
	}

	v = k.calc.elemVelocity(fi.Elem).Interpolate(fi.GC, k.calc.elemVelocity(fi.Neighbor), 1-fi.GC)
	if method == AverageVelocity {
		return
	}

	var (
		gradP    = k.pressure.FaceGradient(fi)
		uncGradP = k.pressure.UncorrectedFaceGradient(fi)
	)
	var elemD, nbrD types.ADVector
	if elemD, err = k.dCoefficient(tid, fi.Elem, fi.ElemVolume*fi.ElemCoord); err != nil {
		return
	}
	if nbrD, err = k.dCoefficient(tid, fi.Neighbor, fi.NeighborVolume*fi.NeighborCoord); err != nil {
		return
	}
	faceD := elemD.Interpolate(fi.GC, nbrD, 1-fi.GC)
	for i := 0; i < k.Dim; i++ {
		v[i] = types.ADSub(v[i], types.ADMul(faceD[i], types.ADSub(gradP[i], uncGradP[i])))
	}
	return
}

// dCoefficient is V*coord/a per component
func (k *Momentum) dCoefficient(tid, elem int, volume float64) (d types.ADVector, err error) {
	var a types.ADVector
	if a, err = k.session.Cache.Lookup(tid, elem); err != nil {
		return
	}
	for i := 0; i < k.Dim; i++ {
		if a[i].Real == 0 {
			return d, types.NewInvariantViolation(k.Params.Name+".InterpolateVelocity",
				"zero momentum coefficient in component %d of element %d", i, elem)
		}
		d[i] = types.ADDiv(types.ADConst(volume), a[i])
	}
	return
}

// FaceResidual is the flux density through the face along the face normal, elem to neighbor
func (k *Momentum) FaceResidual(tid int, fi *mesh.FaceInfo) (r types.ADReal, err error) {
	var v types.ADVector
	if v, err = k.InterpolateVelocity(tid, k.velocityInterp, fi); err != nil {
		return
	}
	var (
		vn         = v.Dot(fi.Normal)
		phiElem    = k.variable.Elem(fi.Elem)
		phiNbr     = k.variable.NeighborValue(fi, phiElem)
		rhoElem    = k.Params.Rho.Face(fields.FaceArg{FI: fi, Side: fields.ElemSide})
		rhoNbr     = k.Params.Rho.Face(fields.FaceArg{FI: fi, Side: fields.NeighborSide})
		advElem    = types.ADMul(rhoElem, phiElem)
		advNbr     = types.ADMul(rhoNbr, phiNbr)
		advFace    = k.advectedFace(fi, advElem, advNbr, vn.Real > 0)
		muElem     = k.Params.Mu.Face(fields.FaceArg{FI: fi, Side: fields.ElemSide})
		muNbr      = k.Params.Mu.Face(fields.FaceArg{FI: fi, Side: fields.NeighborSide})
		muFace     = fields.Interpolate(fields.CentralDifference, fi, muElem, muNbr, true)
		convection = types.ADMul(vn, advFace)
		diffusion  = types.ADNeg(types.ADMul(muFace, k.variable.GradDotNormal(fi)))
	)
	r = types.ADAdd(convection, diffusion)
	if k.Params.PressureTerm {
		pFace := k.pressure.Face(fields.CentralFace(fi))
		r = types.ADAdd(r, types.ADScale(fi.Normal[k.Index], pFace))
	}
	return
}

/*
advectedFace interpolates rho*phi onto the face. A boundary face carrying a value for the
variable convects that value, so the residual depends on the cell value exactly as the upwind
coefficient folds it.
*/
func (k *Momentum) advectedFace(fi *mesh.FaceInfo, advElem, advNbr types.ADReal, elemUpwind bool) types.ADReal {
	if fi.IsBoundary() {
		if bc, ok := k.variable.Dirichlet(fi); ok {
			return types.ADMul(k.Params.Rho.Face(fields.CentralFace(fi)), types.ADConst(bc))
		}
	}
	return fields.Interpolate(k.advected, fi, advElem, advNbr, elemUpwind)
}

// Relaxed reports whether the implicit under relaxation term is active
func (k *Momentum) Relaxed() bool {
	return k.Params.Relaxation > 0 && k.Params.Relaxation < 1
}

// ElemResidual is the transient term plus the under relaxation term, each when enabled
func (k *Momentum) ElemResidual(tid, elem int) (r types.ADReal, err error) {
	if !k.Params.Transient && !k.Relaxed() {
		return
	}
	old := k.variable.Values[elem]
	if len(k.variable.Old) != 0 {
		old = k.variable.Old[elem]
	}
	change := types.ADSub(k.variable.Elem(elem), types.ADConst(old))
	if k.Params.Transient {
		vol := k.m.Volumes[elem] * k.m.ElemCoord(elem)
		r = types.ADScale(vol/k.Params.Dt, types.ADMul(k.Params.Rho.Elem(elem), change))
	}
	if k.Relaxed() {
		var a types.ADVector
		if a, err = k.session.Cache.Lookup(tid, elem); err != nil {
			return
		}
		alpha := k.Params.Relaxation
		r = types.ADAdd(r, types.ADScale((1-alpha)/alpha*a[k.Index].Real, change))
	}
	return
}

// Coefficient returns the cached diagonal coefficient of an element
func (k *Momentum) Coefficient(tid, elem int) (types.ADVector, error) {
	return k.session.Cache.Lookup(tid, elem)
}
