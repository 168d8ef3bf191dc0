package insfv

import (
	"fmt"

	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// FluxKernel contributes a face flux density, oriented elem to neighbor, to both adjacent elements
type FluxKernel interface {
	Name() string
	Variable() *fields.Field
	Prepare() error
	SkipForBoundary(fi *mesh.FaceInfo) bool
	FaceResidual(tid int, fi *mesh.FaceInfo) (types.ADReal, error)
}

// ElemKernel is implemented by kernels that also have a volumetric term
type ElemKernel interface {
	ElemResidual(tid, elem int) (types.ADReal, error)
}

/*
Assembler sums kernel contributions into one residual row per element. Elements are split
into the session's partitions, each partition runs on its own goroutine and writes only its
own rows, faces shared between partitions are evaluated once from each side.
*/
type Assembler struct {
	Session *Session
	Mesh    *mesh.Mesh
}

func NewAssembler(sess *Session, m *mesh.Mesh) *Assembler {
	return &Assembler{Session: sess, Mesh: m}
}

func (as *Assembler) Residual(kernels []FluxKernel, r []types.ADReal) (err error) {
	if len(r) != as.Mesh.NumElements {
		return types.NewInvariantViolation("Assembler.Residual",
			"residual has %d rows for %d elements", len(r), as.Mesh.NumElements)
	}
	for _, k := range kernels {
		if err = k.Prepare(); err != nil {
			return fmt.Errorf("preparing %s: %w", k.Name(), err)
		}
	}
	return as.Session.Partitions.RunPartitioned(func(tid, kMin, kMax int) (err error) {
		for elem := kMin; elem < kMax; elem++ {
			if r[elem], err = as.elemResidual(tid, elem, kernels); err != nil {
				return
			}
		}
		return
	})
}

func (as *Assembler) elemResidual(tid, elem int, kernels []FluxKernel) (sum types.ADReal, err error) {
	for _, k := range kernels {
		for _, faceID := range as.Mesh.EToF[elem] {
			fi := &as.Mesh.FaceInfos[faceID]
			if fi.IsBoundary() && k.SkipForBoundary(fi) {
				continue
			}
			var sign float64
			if sign, err = fi.Sign(elem); err != nil {
				return
			}
			var flux types.ADReal
			if flux, err = k.FaceResidual(tid, fi); err != nil {
				return sum, fmt.Errorf("%s face %d: %w", k.Name(), faceID, err)
			}
			sum = types.ADAdd(sum, types.ADScale(sign*fi.SurfaceArea(), flux))
		}
		if ek, ok := k.(ElemKernel); ok {
			var src types.ADReal
			if src, err = ek.ElemResidual(tid, elem); err != nil {
				return sum, fmt.Errorf("%s element %d: %w", k.Name(), elem, err)
			}
			sum = types.ADAdd(sum, src)
		}
	}
	if !types.ADIsFinite(sum) {
		return sum, types.NewInvariantViolation("Assembler.Residual",
			"residual of element %d is not finite (%g, %g)", elem, sum.Real, sum.Emag)
	}
	return
}
