package mesh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notargets/insfv/types"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad"}[e]
}

// Face represents a face of an element, an edge in 2D and a vertex in 1D
type Face struct {
	Key        types.FaceKey
	Element    int // Parent element, the first element to claim the face
	LocalID    int // Local face ID within the parent element
	Neighbor   int // -1 on the boundary
	BoundaryID int // -1 for interior faces
}

// Mesh is an unstructured finite volume mesh, elements and faces are addressed by integer ID
type Mesh struct {
	Dim      int
	Coord    CoordSystem
	Vertices []types.Point

	// Element data
	Elements     [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element
	Subdomains   []int         // Subdomain ID for each element

	// Connectivity (built during initialization)
	EToE [][]int // Element to element connectivity [nelems][nfaces_per_elem]
	EToF [][]int // Element to face connectivity [nelems][nfaces_per_elem]

	// Face data
	Faces   []Face                // All unique faces in mesh
	FaceMap map[types.FaceKey]int // Map from packed vertex key to face ID

	// Boundaries, faces are tagged by key before BuildConnectivity
	BoundaryNames []string              // Indexed by boundary ID
	BoundaryTags  map[types.FaceKey]int // Face key to boundary ID

	// Cross section of a 1D mesh, faces are points and carry this area
	LineArea float64

	// Geometry, built by BuildFaceInfo
	Volumes   []float64
	Centroids []types.Point
	FaceInfos []FaceInfo

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int
}

// NewMesh creates an empty mesh of the given dimension
func NewMesh(dim int) *Mesh {
	return &Mesh{
		Dim:          dim,
		FaceMap:      make(map[types.FaceKey]int),
		BoundaryTags: make(map[types.FaceKey]int),
		LineArea:     1,
	}
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".su2":
		return ReadSU2(filename)
	case ".neu":
		return ReadGambit2D(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// AddBoundary registers a named boundary and returns its ID, names are unique
func (m *Mesh) AddBoundary(name string) (bid int) {
	for bid = range m.BoundaryNames {
		if m.BoundaryNames[bid] == name {
			return
		}
	}
	m.BoundaryNames = append(m.BoundaryNames, name)
	return len(m.BoundaryNames) - 1
}

func (m *Mesh) TagBoundaryFace(bid int, verts [2]int) {
	m.BoundaryTags[types.NewFaceKey(verts)] = bid
}

func (m *Mesh) BoundaryID(name string) (bid int, err error) {
	for bid = range m.BoundaryNames {
		if m.BoundaryNames[bid] == name {
			return
		}
	}
	return -1, types.NewConfigurationError("mesh", "boundary",
		"boundary [%s] does not exist, have %v", name, m.BoundaryNames)
}

func (m *Mesh) BoundaryName(bid int) string {
	if bid < 0 || bid >= len(m.BoundaryNames) {
		return fmt.Sprintf("boundary_%d", bid)
	}
	return m.BoundaryNames[bid]
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() (err error) {
	m.NumElements = len(m.Elements)
	m.NumVertices = len(m.Vertices)
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[types.FaceKey]int)
	if len(m.Subdomains) != m.NumElements {
		m.Subdomains = make([]int, m.NumElements)
	}

	for elemID := 0; elemID < m.NumElements; elemID++ {
		faceVertices := GetElementFaces(m.ElementTypes[elemID], m.Elements[elemID])
		if len(faceVertices) == 0 {
			return fmt.Errorf("element %d has unsupported type %s for a %dD mesh",
				elemID, m.ElementTypes[elemID], m.Dim)
		}
		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localFaceID, faceVerts := range faceVertices {
			key := types.NewFaceKey(faceVerts)
			if faceID, exists := m.FaceMap[key]; exists {
				// Face already exists - this is an interior face
				face := &m.Faces[faceID]
				if face.Neighbor != -1 {
					return fmt.Errorf("face %v is shared by more than two elements: %d, %d, %d",
						faceVerts, face.Element, face.Neighbor, elemID)
				}
				face.Neighbor = elemID
				m.EToE[elemID][localFaceID] = face.Element
				m.EToE[face.Element][face.LocalID] = elemID
				m.EToF[elemID][localFaceID] = faceID
			} else {
				faceID = len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Key:        key,
					Element:    elemID,
					LocalID:    localFaceID,
					Neighbor:   -1,
					BoundaryID: -1,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}
	m.NumFaces = len(m.Faces)

	for faceID := range m.Faces {
		face := &m.Faces[faceID]
		if face.Neighbor != -1 {
			continue
		}
		bid, ok := m.BoundaryTags[face.Key]
		if !ok {
			return fmt.Errorf("boundary face %v of element %d is not tagged with a boundary",
				face.Key.GetVertices(), face.Element)
		}
		face.BoundaryID = bid
	}
	return
}

// GetElementFaces returns the face vertices for each element type
func GetElementFaces(elemType ElementType, vertices []int) [][2]int {
	switch elemType {
	case Line:
		return [][2]int{
			{vertices[0], vertices[0]}, // Face 0 (left point)
			{vertices[1], vertices[1]}, // Face 1 (right point)
		}
	case Triangle:
		return [][2]int{
			{vertices[0], vertices[1]},
			{vertices[1], vertices[2]},
			{vertices[2], vertices[0]},
		}
	case Quad:
		return [][2]int{
			{vertices[0], vertices[1]},
			{vertices[1], vertices[2]},
			{vertices[2], vertices[3]},
			{vertices[3], vertices[0]},
		}
	default:
		return [][2]int{}
	}
}

/*
SubdomainBoundaryIDs returns the sorted IDs of the boundaries that touch elements of the
given subdomains. An empty subdomain list selects the whole mesh.
*/
func (m *Mesh) SubdomainBoundaryIDs(subdomains []int) (bids []int) {
	var (
		inSub = func(elemID int) bool {
			if len(subdomains) == 0 {
				return true
			}
			for _, sd := range subdomains {
				if m.Subdomains[elemID] == sd {
					return true
				}
			}
			return false
		}
		seen = make(map[int]bool)
	)
	for _, face := range m.Faces {
		if face.Neighbor == -1 && inSub(face.Element) && !seen[face.BoundaryID] {
			seen[face.BoundaryID] = true
			bids = append(bids, face.BoundaryID)
		}
	}
	sort.Ints(bids)
	return
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Dimension: %d, Coordinates: %s\n", m.Dim, m.Coord)
	fmt.Printf("  Vertices: %d\n", m.NumVertices)
	fmt.Printf("  Elements: %d\n", m.NumElements)
	fmt.Printf("  Faces: %d\n", m.NumFaces)

	typeCounts := make(map[ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}
	fmt.Printf("  Element types:\n")
	for t, count := range typeCounts {
		fmt.Printf("    %s: %d\n", t, count)
	}

	boundaryFaces := make(map[int]int)
	for _, face := range m.Faces {
		if face.Neighbor == -1 {
			boundaryFaces[face.BoundaryID]++
		}
	}
	fmt.Printf("  Boundary faces:\n")
	for _, bid := range m.SubdomainBoundaryIDs(nil) {
		fmt.Printf("    %s[%d]: %d\n", m.BoundaryName(bid), bid, boundaryFaces[bid])
	}
}
