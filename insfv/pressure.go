package insfv

import (
	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// PressureParams names the pressure unknown and the fields exchanged from the momentum stage
type PressureParams struct {
	Name       string
	Pressure   string
	Ainv       [3]string // Ainv_x, Ainv_y, Ainv_z
	Hu         [3]string // Hu_x, Hu_y, Hu_z
	ADIndexing types.ADIndexing
}

/*
PressurePredictor is the Poisson like residual sum_i Ainv_f,i*(grad p)_i*n_i + Hu_f.n on each
face. Assembled over every face it drives the face mass balance of the corrected velocity to
zero with the momentum coefficients frozen.
*/
type PressurePredictor struct {
	Params PressureParams
	Dim    int

	pressure *fields.Field
	ainv     [3]*fields.Field
	hu       [3]*fields.Field
}

func NewPressurePredictor(st *fields.Storage, p PressureParams) (k *PressurePredictor, err error) {
	k = &PressurePredictor{
		Params: p,
		Dim:    st.Mesh.Dim,
	}
	if err = types.CheckADIndexing(p.Name, p.ADIndexing); err != nil {
		return nil, err
	}
	if k.pressure, err = st.Require(p.Name, "variable", p.Pressure, fields.KindPressure); err != nil {
		return nil, err
	}
	var (
		comps = [3]string{"x", "y", "z"}
	)
	for i := 0; i < k.Dim; i++ {
		if len(p.Ainv[i]) == 0 || len(p.Hu[i]) == 0 {
			return nil, types.NewConfigurationError(p.Name, "Ainv_"+comps[i],
				"in %d dimensions Ainv_%s and Hu_%s must be supplied", k.Dim, comps[i], comps[i])
		}
		if k.ainv[i], err = st.Require(p.Name, "Ainv_"+comps[i], p.Ainv[i], fields.KindAuxiliary); err != nil {
			return nil, err
		}
		if k.hu[i], err = st.Require(p.Name, "Hu_"+comps[i], p.Hu[i], fields.KindAuxiliary); err != nil {
			return nil, err
		}
	}
	return
}

func (k *PressurePredictor) Name() string            { return k.Params.Name }
func (k *PressurePredictor) Variable() *fields.Field { return k.pressure }

func (k *PressurePredictor) Prepare() error {
	k.pressure.PrepareGradients()
	return nil
}

// SkipForBoundary follows the plain flux kernel rule, boundaries run only with a pressure value
func (k *PressurePredictor) SkipForBoundary(fi *mesh.FaceInfo) bool {
	if !fi.IsBoundary() {
		return false
	}
	_, ok := k.pressure.Dirichlet(fi)
	return !ok
}

// faceVector averages a component field set to the face, the neighbor side falls back to the elem value
func (k *PressurePredictor) faceVector(comps [3]*fields.Field, fi *mesh.FaceInfo) (face types.ADVector) {
	for i := 0; i < k.Dim; i++ {
		elemVal := comps[i].Elem(fi.Elem)
		face[i] = fields.Interpolate(fields.CentralDifference, fi,
			elemVal, comps[i].NeighborValue(fi, elemVal), true)
	}
	return
}

func (k *PressurePredictor) FaceResidual(tid int, fi *mesh.FaceInfo) (r types.ADReal, err error) {
	var (
		ainvF = k.faceVector(k.ainv, fi)
		huF   = k.faceVector(k.hu, fi)
		gradP = k.pressure.FaceGradient(fi)
	)
	for i := 0; i < k.Dim; i++ {
		r = types.ADAdd(r, types.ADScale(fi.Normal[i], types.ADMul(ainvF[i], gradP[i])))
	}
	r = types.ADAdd(r, huF.Dot(fi.Normal))
	return
}

/*
BoundaryMassFlux closes the pressure equation on boundaries where the velocity is known and the
pressure is not, e.g. an inlet. The face flux is -v_b.n, the same face mass balance the
predictor residual carries on interior faces.
*/
type BoundaryMassFlux struct {
	Dim      int
	name     string
	pressure *fields.Field
	velocity [3]*fields.Field
}

func NewBoundaryMassFlux(st *fields.Storage, name, pressure string, velocity [3]string) (k *BoundaryMassFlux, err error) {
	k = &BoundaryMassFlux{
		Dim:  st.Mesh.Dim,
		name: name,
	}
	if k.pressure, err = st.Require(name, "variable", pressure, fields.KindPressure); err != nil {
		return nil, err
	}
	params := [3]string{"u", "v", "w"}
	for i := 0; i < k.Dim; i++ {
		if k.velocity[i], err = st.Require(name, params[i], velocity[i], fields.KindVelocity); err != nil {
			return nil, err
		}
	}
	return
}

func (k *BoundaryMassFlux) Name() string            { return k.name }
func (k *BoundaryMassFlux) Variable() *fields.Field { return k.pressure }
func (k *BoundaryMassFlux) Prepare() error          { return nil }

func (k *BoundaryMassFlux) SkipForBoundary(fi *mesh.FaceInfo) bool {
	if _, ok := k.pressure.Dirichlet(fi); ok {
		return true
	}
	for i := 0; i < k.Dim; i++ {
		if _, ok := k.velocity[i].Dirichlet(fi); !ok {
			return true
		}
	}
	return false
}

func (k *BoundaryMassFlux) FaceResidual(tid int, fi *mesh.FaceInfo) (r types.ADReal, err error) {
	if !fi.IsBoundary() {
		return
	}
	var v types.ADVector
	for i := 0; i < k.Dim; i++ {
		v[i] = k.velocity[i].BoundaryFaceValue(fi)
	}
	return types.ADNeg(v.Dot(fi.Normal)), nil
}
