package fields

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/insfv/bcs"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// Kind tags a field so couplings can be checked at construction
type Kind uint8

const (
	KindAuxiliary Kind = iota
	KindPressure
	KindVelocity
)

func (k Kind) String() string {
	switch k {
	case KindAuxiliary:
		return "auxiliary"
	case KindPressure:
		return "pressure"
	case KindVelocity:
		return "velocity"
	}
	return "unknown"
}

/*
Field is a cell centered scalar with one value per element. Seeds, when present, are the
derivative directions carried into the dual numbers returned by Elem, the solver sets them
to build Jacobian columns. Boundary values come from the registry by variable name.
*/
type Field struct {
	Name   string
	Kind   Kind
	Values []float64
	Seeds  []float64
	Old    []float64 // Previous time step, only used by transient terms

	m     *mesh.Mesh
	reg   *bcs.Registry
	grads []types.ADVector
}

func NewField(name string, kind Kind, m *mesh.Mesh, reg *bcs.Registry) *Field {
	return &Field{
		Name:   name,
		Kind:   kind,
		Values: make([]float64, m.NumElements),
		m:      m,
		reg:    reg,
	}
}

func (f *Field) Mesh() *mesh.Mesh { return f.m }

func (f *Field) Elem(k int) types.ADReal {
	if f.Seeds == nil {
		return types.ADConst(f.Values[k])
	}
	return types.ADVar(f.Values[k], f.Seeds[k])
}

// SetSeeds replaces the derivative seeds, nil removes them
func (f *Field) SetSeeds(seeds []float64) {
	f.Seeds = seeds
	f.Invalidate()
}

func (f *Field) Fill(val float64) {
	for k := range f.Values {
		f.Values[k] = val
	}
	f.Invalidate()
}

func (f *Field) SetFunc(fn func(p types.Point) float64) {
	for k := range f.Values {
		f.Values[k] = fn(f.m.Centroids[k])
	}
	f.Invalidate()
}

// CopyFrom copies values only, seeds and gradients are reset
func (f *Field) CopyFrom(src *Field) (err error) {
	if len(src.Values) != len(f.Values) {
		return fmt.Errorf("field %s has %d values, source %s has %d",
			f.Name, len(f.Values), src.Name, len(src.Values))
	}
	copy(f.Values, src.Values)
	f.Seeds = nil
	f.Invalidate()
	return
}

// SaveOld snapshots the current values as the previous time step
func (f *Field) SaveOld() {
	if len(f.Old) != len(f.Values) {
		f.Old = make([]float64, len(f.Values))
	}
	copy(f.Old, f.Values)
}

// Invalidate drops precomputed gradients, call after writing Values directly
func (f *Field) Invalidate() { f.grads = nil }

// Dirichlet reports a boundary value condition on a boundary face
func (f *Field) Dirichlet(fi *mesh.FaceInfo) (val float64, ok bool) {
	if !fi.IsBoundary() || f.reg == nil {
		return 0, false
	}
	var c *bcs.Condition
	if c, ok = f.reg.Dirichlet(fi.BoundaryID, f.Name); !ok {
		return
	}
	return c.ValueAt(fi.FaceCentroid), true
}

// BoundaryFaceValue is the Dirichlet value, otherwise the one term extrapolation of the elem value
func (f *Field) BoundaryFaceValue(fi *mesh.FaceInfo) types.ADReal {
	if val, ok := f.Dirichlet(fi); ok {
		return types.ADConst(val)
	}
	return f.Elem(fi.Elem)
}

/*
NeighborValue is the value on the neighbor side of a face. On the boundary it is a ghost
value, 2*bc-elem for a Dirichlet condition and the elem value otherwise.
*/
func (f *Field) NeighborValue(fi *mesh.FaceInfo, elemVal types.ADReal) types.ADReal {
	if !fi.IsBoundary() {
		return f.Elem(fi.Neighbor)
	}
	if val, ok := f.Dirichlet(fi); ok {
		return types.ADSub(types.ADConst(2*val), elemVal)
	}
	return elemVal
}

// Face implements Functor
func (f *Field) Face(fa FaceArg) types.ADReal {
	fi := fa.FI
	switch {
	case fi.IsBoundary():
		return f.BoundaryFaceValue(fi)
	case fa.Side == ElemSide:
		return f.Elem(fi.Elem)
	case fa.Side == NeighborSide:
		return f.Elem(fi.Neighbor)
	}
	return Interpolate(fa.Limiter, fi, f.Elem(fi.Elem), f.Elem(fi.Neighbor), fa.ElemIsUpwind)
}

// Stats returns the min, max and L2 norm of the values
func (f *Field) Stats() (min, max, l2 float64) {
	if len(f.Values) == 0 {
		return
	}
	return floats.Min(f.Values), floats.Max(f.Values), floats.Norm(f.Values, 2)
}

func (f *Field) String() string {
	min, max, l2 := f.Stats()
	return fmt.Sprintf("%s[%s] min=%8.5g max=%8.5g l2=%8.5g", f.Name, f.Kind, min, max, l2)
}
