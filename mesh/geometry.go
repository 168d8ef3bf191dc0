package mesh

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/insfv/types"
)

// CoordSystem selects how volumes and surfaces are weighted
type CoordSystem uint8

const (
	XYZ CoordSystem = iota
	RZ              // Axisymmetric, x is the radius and y the axis
)

func (cs CoordSystem) String() string {
	switch cs {
	case XYZ:
		return "XYZ"
	case RZ:
		return "RZ"
	}
	return "unknown"
}

func ParseCoordSystem(name string) (cs CoordSystem, err error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "XYZ":
		return XYZ, nil
	case "RZ":
		return RZ, nil
	}
	return XYZ, types.NewConfigurationError("mesh", "coord_type",
		"unknown coordinate system [%s], use XYZ or RZ", name)
}

// Factor multiplies a planar volume or area at point p, 2*pi*r for RZ
func (cs CoordSystem) Factor(p types.Point) float64 {
	if cs == RZ {
		return 2. * math.Pi * p[0]
	}
	return 1.
}

func (m *Mesh) elementGeometry(elemID int) (vol float64, centroid types.Point, err error) {
	verts := m.Elements[elemID]
	switch m.ElementTypes[elemID] {
	case Line:
		x0, x1 := m.Vertices[verts[0]], m.Vertices[verts[1]]
		vol = math.Abs(x1[0]-x0[0]) * m.LineArea
		centroid = x0.Add(x1).Scale(0.5)
	case Triangle, Quad:
		// Shoelace area and centroid, valid for simple polygons of either orientation
		var a, cx, cy float64
		for i := range verts {
			p, q := m.Vertices[verts[i]], m.Vertices[verts[(i+1)%len(verts)]]
			cross := p[0]*q[1] - q[0]*p[1]
			a += cross
			cx += (p[0] + q[0]) * cross
			cy += (p[1] + q[1]) * cross
		}
		a *= 0.5
		if a == 0 {
			err = fmt.Errorf("element %d has zero area", elemID)
			return
		}
		centroid = types.Point{cx / (6 * a), cy / (6 * a), 0}
		vol = math.Abs(a)
	default:
		err = fmt.Errorf("element %d has unsupported type %s", elemID, m.ElementTypes[elemID])
	}
	return
}

// faceGeometry returns area, centroid and the unit normal pointing away from the element
// centroid xC
func (m *Mesh) faceGeometry(face Face, xC types.Point) (area float64, centroid, normal types.Point) {
	verts := face.Key.GetVertices()
	p, q := m.Vertices[verts[0]], m.Vertices[verts[1]]
	if m.Dim == 1 {
		area = m.LineArea
		centroid = p
		normal = types.Point{1, 0, 0}
	} else {
		edge := q.Sub(p)
		area = edge.Norm()
		centroid = p.Add(q).Scale(0.5)
		normal = types.Point{edge[1], -edge[0], 0}.Unit()
	}
	if normal.Dot(centroid.Sub(xC)) < 0 {
		normal = normal.Scale(-1)
	}
	return
}
