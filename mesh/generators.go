package mesh

import (
	"fmt"

	"github.com/notargets/insfv/types"
)

// Boundary IDs created by the structured generators
const (
	Left = iota
	Right
	Bottom
	Top
)

/*
NewChannelMesh builds an nx by ny quad mesh of the rectangle [0,lx]x[0,ly]. Element k = j*nx+i
is the cell in column i and row j. Boundaries are left, right, bottom and top, in that ID order.
*/
func NewChannelMesh(nx, ny int, lx, ly float64) (m *Mesh, err error) {
	if nx < 1 || ny < 1 || lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("invalid channel dimensions: %dx%d cells on %gx%g", nx, ny, lx, ly)
	}
	var (
		dx, dy = lx / float64(nx), ly / float64(ny)
		vid    = func(i, j int) int { return j*(nx+1) + i }
	)
	m = NewMesh(2)
	m.Vertices = make([]types.Point, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices[vid(i, j)] = types.Point{float64(i) * dx, float64(j) * dy, 0}
		}
	}
	m.Elements = make([][]int, 0, nx*ny)
	m.ElementTypes = make([]ElementType, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.Elements = append(m.Elements, []int{vid(i, j), vid(i+1, j), vid(i+1, j+1), vid(i, j+1)})
			m.ElementTypes = append(m.ElementTypes, Quad)
		}
	}
	left, right := m.AddBoundary("left"), m.AddBoundary("right")
	bottom, top := m.AddBoundary("bottom"), m.AddBoundary("top")
	for j := 0; j < ny; j++ {
		m.TagBoundaryFace(left, [2]int{vid(0, j), vid(0, j+1)})
		m.TagBoundaryFace(right, [2]int{vid(nx, j), vid(nx, j+1)})
	}
	for i := 0; i < nx; i++ {
		m.TagBoundaryFace(bottom, [2]int{vid(i, 0), vid(i+1, 0)})
		m.TagBoundaryFace(top, [2]int{vid(i, ny), vid(i+1, ny)})
	}
	if err = m.BuildConnectivity(); err != nil {
		return nil, err
	}
	if err = m.BuildFaceInfo(); err != nil {
		return nil, err
	}
	return
}

// NewLineMesh builds nx equal cells on [0,lx], every face carries the given area
func NewLineMesh(nx int, lx, area float64) (m *Mesh, err error) {
	if nx < 1 || lx <= 0 || area <= 0 {
		return nil, fmt.Errorf("invalid line dimensions: %d cells on %g with area %g", nx, lx, area)
	}
	dx := lx / float64(nx)
	m = NewMesh(1)
	m.LineArea = area
	m.Vertices = make([]types.Point, nx+1)
	for i := 0; i <= nx; i++ {
		m.Vertices[i] = types.Point{float64(i) * dx, 0, 0}
	}
	for i := 0; i < nx; i++ {
		m.Elements = append(m.Elements, []int{i, i + 1})
		m.ElementTypes = append(m.ElementTypes, Line)
	}
	m.TagBoundaryFace(m.AddBoundary("left"), [2]int{0, 0})
	m.TagBoundaryFace(m.AddBoundary("right"), [2]int{nx, nx})
	if err = m.BuildConnectivity(); err != nil {
		return nil, err
	}
	if err = m.BuildFaceInfo(); err != nil {
		return nil, err
	}
	return
}
