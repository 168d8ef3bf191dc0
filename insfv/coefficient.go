package insfv

import (
	"math"
	"reflect"

	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

/*
CoefficientCalculator computes the diagonal momentum coefficient a of an element from simple
control volume balances of advection and diffusion. Diffusive contributions are always
positive, advective ones take the sign of the local outflow.

Example 1D diffusion, the sum of the fluxes around a control volume:

	-D_e (phi_E - phi_C)/d_CE + D_w (phi_C - phi_W)/d_WC, phi_C coefficient D_e/d_CE + D_w/d_WC

Example 1D advection with an average interpolation:

	u_e (phi_C + phi_E)/2 - u_w (phi_W + phi_C)/2, phi_C coefficient (u_e - u_w)/2
*/
type CoefficientCalculator struct {
	Mesh       *mesh.Mesh
	Classifier *BoundaryClassifier
	Velocity   [3]*fields.Field // Advecting velocity, components past Dim are nil
	Mu, Rho    fields.Functor
	Advected   fields.Limiter
	Dim        int
}

// Coefficient folds the face contributions of every face incident to elem
func (cc *CoefficientCalculator) Coefficient(elem int) (coeff types.ADVector, err error) {
	elemVel := cc.elemVelocity(elem)
	for _, faceID := range cc.Mesh.EToF[elem] {
		var contrib types.ADVector
		if contrib, err = cc.faceContribution(elem, elemVel, &cc.Mesh.FaceInfos[faceID]); err != nil {
			return
		}
		coeff = coeff.Add(contrib)
	}
	return
}

func (cc *CoefficientCalculator) elemVelocity(elem int) (v types.ADVector) {
	for i := 0; i < cc.Dim; i++ {
		v[i] = cc.Velocity[i].Elem(elem)
	}
	return
}

func (cc *CoefficientCalculator) boundaryVelocity(fi *mesh.FaceInfo) (v types.ADVector) {
	for i := 0; i < cc.Dim; i++ {
		v[i] = cc.Velocity[i].BoundaryFaceValue(fi)
	}
	return
}

func (cc *CoefficientCalculator) faceContribution(elem int, elemVel types.ADVector,
	fi *mesh.FaceInfo) (contrib types.ADVector, err error) {
	var of mesh.OrientedFace
	if of, err = fi.From(elem); err != nil {
		return
	}
	var (
		sv      = of.OutSurfaceVector()
		svNorm  = sv.Norm()
		normal  = of.OutNormal
		toFace  = fi.FaceCentroid.Sub(of.SelfCentroid)
		faceArg = fields.CentralFace(fi)
		muF     = cc.Mu.Face(faceArg)
		rhoF    = cc.Rho.Face(faceArg)
	)
	if fi.IsBoundary() {
		switch cat := cc.Classifier.Category(fi.BoundaryID); cat {
		case types.BC_NoSlipWall:
			// Viscous shear from the wall, no flow normal to the wall so no advection
			dn := math.Abs(toFace.Dot(normal))
			for i := 0; i < cc.Dim; i++ {
				contrib[i] = types.ADScale(svNorm/dn*(1-normal[i]*normal[i]), muF)
			}
		case types.BC_SlipWall:
			// Neither shear nor normal flow
		case types.BC_Flow, types.BC_FullyDevelopedFlow:
			faceVel := cc.boundaryVelocity(fi)
			t := types.ADMul(rhoF, types.ADScale(cc.selfWeight(of, faceVel), faceVel.Dot(sv)))
			if cat != types.BC_FullyDevelopedFlow {
				// Elem to face distance replaces the elem to neighbor distance
				t = types.ADAdd(t, types.ADScale(svNorm/toFace.Norm(), muF))
			}
			for i := 0; i < cc.Dim; i++ {
				contrib[i] = t
			}
		case types.BC_Symmetry:
			dn := math.Abs(toFace.Dot(normal))
			for i := 0; i < cc.Dim; i++ {
				contrib[i] = types.ADScale(2*svNorm/dn*normal[i]*normal[i], muF)
			}
		default:
			err = types.NewConfigurationError(cc.Classifier.Object, "BCs",
				"not completely bounded by flow, no-slip-wall, slip-wall or symmetry conditions, "+
					"please examine boundary %s", cc.Mesh.BoundaryName(fi.BoundaryID))
		}
		return
	}

	// Interior face, the result is the same for every component
	var (
		nbrVel   = cc.elemVelocity(of.Other)
		wSelf    = selfGeometricWeight(of)
		interpV  = elemVel.Interpolate(wSelf, nbrVel, 1-wSelf)
		t        = types.ADMul(rhoF, types.ADScale(cc.selfWeight(of, interpV), interpV.Dot(sv)))
		viscous  = types.ADScale(svNorm/fi.DCFMag, muF)
		combined = types.ADAdd(t, viscous)
	)
	for i := 0; i < cc.Dim; i++ {
		contrib[i] = combined
	}
	return
}

// selfGeometricWeight is the average interpolation weight of the orienting element
func selfGeometricWeight(of mesh.OrientedFace) float64 {
	if of.Self == of.Elem {
		return of.GC
	}
	return 1 - of.GC
}

// selfWeight is the advected interpolation weight of the orienting element
func (cc *CoefficientCalculator) selfWeight(of mesh.OrientedFace, v types.ADVector) float64 {
	if cc.Advected == fields.Upwind {
		if v.Dot(of.OutNormal).Real > 0 {
			return 1
		}
		return 0
	}
	return selfGeometricWeight(of)
}

// Equivalent is true when both calculators produce the same coefficients
func (cc *CoefficientCalculator) Equivalent(other *CoefficientCalculator) bool {
	if cc.Mesh != other.Mesh || cc.Classifier == nil || other.Classifier == nil ||
		cc.Velocity != other.Velocity || cc.Advected != other.Advected || cc.Dim != other.Dim {
		return false
	}
	return sameFunctor(cc.Mu, other.Mu) && sameFunctor(cc.Rho, other.Rho)
}

func sameFunctor(a, b fields.Functor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}
