package fields

import (
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// Gradient is the Green-Gauss cell gradient, face values from the gC weighted average
func (f *Field) Gradient(k int) types.ADVector {
	if f.grads != nil {
		return f.grads[k]
	}
	return f.greenGauss(k)
}

// PrepareGradients computes every cell gradient once, until the next Invalidate
func (f *Field) PrepareGradients() {
	grads := make([]types.ADVector, len(f.Values))
	for k := range grads {
		grads[k] = f.greenGauss(k)
	}
	f.grads = grads
}

func (f *Field) greenGauss(k int) (grad types.ADVector) {
	for _, faceID := range f.m.EToF[k] {
		var (
			fi   = &f.m.FaceInfos[faceID]
			sf   = fi.Normal.Scale(fi.Area)
			phiF = f.BoundaryFaceValue(fi)
		)
		if !fi.IsBoundary() {
			phiF = Interpolate(CentralDifference, fi, f.Elem(fi.Elem), f.Elem(fi.Neighbor), false)
		}
		if k == fi.Neighbor {
			sf = sf.Scale(-1)
		}
		for i := 0; i < 3; i++ {
			grad[i] = types.ADAdd(grad[i], types.ADScale(sf[i], phiF))
		}
	}
	return grad.Scale(1. / f.m.Volumes[k])
}

// UncorrectedFaceGradient averages the two cell gradients, the elem gradient on the boundary
func (f *Field) UncorrectedFaceGradient(fi *mesh.FaceInfo) types.ADVector {
	elemGrad := f.Gradient(fi.Elem)
	if fi.IsBoundary() {
		return elemGrad
	}
	return InterpolateVector(CentralDifference, fi, elemGrad, f.Gradient(fi.Neighbor), false)
}

// GradDotNormal is the orthogonal normal gradient (phiN - phiC)/|dCF|
func (f *Field) GradDotNormal(fi *mesh.FaceInfo) types.ADReal {
	elemVal := f.Elem(fi.Elem)
	return types.ADScale(1./fi.DCFMag, types.ADSub(f.NeighborValue(fi, elemVal), elemVal))
}

/*
FaceGradient is the averaged gradient with its component along dCF replaced by the compact
two point difference, which is what removes odd-even decoupling on collocated grids.
*/
func (f *Field) FaceGradient(fi *mesh.FaceInfo) types.ADVector {
	var (
		unc  = f.UncorrectedFaceGradient(fi)
		corr = types.ADSub(f.GradDotNormal(fi), unc.Dot(fi.ECF))
	)
	for i := 0; i < 3; i++ {
		unc[i] = types.ADAdd(unc[i], types.ADScale(fi.ECF[i], corr))
	}
	return unc
}
