package types

import "math"

// Point is used for coordinates, normals and surface vectors alike
type Point [3]float64

func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1], p[2] - q[2]}
}

func (p Point) Scale(f float64) Point {
	return Point{f * p[0], f * p[1], f * p[2]}
}

func (p Point) Dot(q Point) float64 {
	return p[0]*q[0] + p[1]*q[1] + p[2]*q[2]
}

func (p Point) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

func (p Point) Unit() Point {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Scale(1. / n)
}
