package types

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
)

/*
ADReal is the automatic differentiation number used throughout the kernels. It carries a
value and a single directional derivative, the direction being set by the seeds placed on
the unknowns before an assembly pass (see solver.Newton).
*/
type ADReal = dual.Number

// ADIndexing selects how derivative slots map to unknowns
type ADIndexing uint8

const (
	GlobalIndexing ADIndexing = iota
	LocalIndexing
)

func (ai ADIndexing) String() string {
	switch ai {
	case GlobalIndexing:
		return "global"
	case LocalIndexing:
		return "local"
	}
	return "unknown"
}

// CheckADIndexing rejects anything but global indexing, face kernels couple unknowns
// from neighboring elements and need a global derivative slot
func CheckADIndexing(object string, ai ADIndexing) error {
	if ai != GlobalIndexing {
		return NewConfigurationError(object, "ad_indexing",
			"%s AD indexing is not supported, global indexing is required", ai)
	}
	return nil
}

func ADConst(v float64) ADReal {
	return ADReal{Real: v}
}

func ADVar(v, seed float64) ADReal {
	return ADReal{Real: v, Emag: seed}
}

func ADAdd(a, b ADReal) ADReal {
	return ADReal{Real: a.Real + b.Real, Emag: a.Emag + b.Emag}
}

func ADSub(a, b ADReal) ADReal {
	return ADReal{Real: a.Real - b.Real, Emag: a.Emag - b.Emag}
}

func ADNeg(a ADReal) ADReal {
	return ADReal{Real: -a.Real, Emag: -a.Emag}
}

func ADMul(a, b ADReal) ADReal {
	return dual.Mul(a, b)
}

func ADScale(f float64, a ADReal) ADReal {
	return dual.Scale(f, a)
}

func ADAbs(a ADReal) ADReal {
	return dual.Abs(a)
}

// ADDiv does not guard the divisor, callers that can see a zero divisor check first
func ADDiv(a, b ADReal) ADReal {
	return dual.Mul(a, dual.Inv(b))
}

func ADIsFinite(a ADReal) bool {
	return !math.IsNaN(a.Real) && !math.IsInf(a.Real, 0) &&
		!math.IsNaN(a.Emag) && !math.IsInf(a.Emag, 0)
}

// ADVector is a spatial vector of ADReal, components past the mesh dimension stay zero
type ADVector [3]ADReal

func NewADVector(v Point) (r ADVector) {
	for i := 0; i < 3; i++ {
		r[i] = ADConst(v[i])
	}
	return
}

func (v ADVector) Add(w ADVector) (r ADVector) {
	for i := 0; i < 3; i++ {
		r[i] = ADAdd(v[i], w[i])
	}
	return
}

func (v ADVector) Sub(w ADVector) (r ADVector) {
	for i := 0; i < 3; i++ {
		r[i] = ADSub(v[i], w[i])
	}
	return
}

func (v ADVector) Scale(f float64) (r ADVector) {
	for i := 0; i < 3; i++ {
		r[i] = ADScale(f, v[i])
	}
	return
}

// Dot with a plain geometric vector, e.g. a face normal or surface vector
func (v ADVector) Dot(p Point) (r ADReal) {
	for i := 0; i < 3; i++ {
		r = ADAdd(r, ADScale(p[i], v[i]))
	}
	return
}

func (v ADVector) DotAD(w ADVector) (r ADReal) {
	for i := 0; i < 3; i++ {
		r = ADAdd(r, ADMul(v[i], w[i]))
	}
	return
}

func (v ADVector) Values() (p Point) {
	for i := 0; i < 3; i++ {
		p[i] = v[i].Real
	}
	return
}

// Interpolate returns w1*v + w2*other
func (v ADVector) Interpolate(w1 float64, other ADVector, w2 float64) (r ADVector) {
	for i := 0; i < 3; i++ {
		r[i] = ADAdd(ADScale(w1, v[i]), ADScale(w2, other[i]))
	}
	return
}
