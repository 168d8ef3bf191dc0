package fields

import (
	"strings"

	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// Limiter selects the face interpolation of an advected quantity
type Limiter uint8

const (
	CentralDifference Limiter = iota // Geometric average with the gC weight
	Upwind
)

func (l Limiter) String() string {
	switch l {
	case CentralDifference:
		return "average"
	case Upwind:
		return "upwind"
	}
	return "unknown"
}

func ParseLimiter(object, param, name string) (l Limiter, err error) {
	switch strings.TrimSpace(name) {
	case "", "average":
		return CentralDifference, nil
	case "upwind":
		return Upwind, nil
	}
	return CentralDifference, types.NewConfigurationError(object, param,
		"unknown interpolation method [%s], use average or upwind", name)
}

// Side selects a one or two sided face evaluation
type Side uint8

const (
	BothSides Side = iota
	ElemSide
	NeighborSide
)

/*
FaceArg is the face context handed to a functor. ElemIsUpwind is only read by the upwind
limiter and is true when the advecting velocity points from elem to neighbor.
*/
type FaceArg struct {
	FI           *mesh.FaceInfo
	Limiter      Limiter
	ElemIsUpwind bool
	Side         Side
}

func CentralFace(fi *mesh.FaceInfo) FaceArg {
	return FaceArg{FI: fi, Limiter: CentralDifference}
}

// Functor is anything that can be evaluated on an element or a face, e.g. a material property
type Functor interface {
	Elem(k int) types.ADReal
	Face(fa FaceArg) types.ADReal
}

// Constant is a uniform functor
type Constant float64

func (c Constant) Elem(int) types.ADReal     { return types.ADConst(float64(c)) }
func (c Constant) Face(FaceArg) types.ADReal { return types.ADConst(float64(c)) }

// Interpolate combines elem and neighbor values on a face with the given limiter
func Interpolate(lim Limiter, fi *mesh.FaceInfo, elemVal, nbrVal types.ADReal,
	elemIsUpwind bool) types.ADReal {
	if lim == Upwind {
		if elemIsUpwind {
			return elemVal
		}
		return nbrVal
	}
	return types.ADAdd(types.ADScale(fi.GC, elemVal), types.ADScale(1-fi.GC, nbrVal))
}

// InterpolateVector is Interpolate applied per component
func InterpolateVector(lim Limiter, fi *mesh.FaceInfo, elemVal, nbrVal types.ADVector,
	elemIsUpwind bool) (r types.ADVector) {
	for i := 0; i < 3; i++ {
		r[i] = Interpolate(lim, fi, elemVal[i], nbrVal[i], elemIsUpwind)
	}
	return
}
