package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/insfv/types"
)

// Gambit neutral file element types
const (
	gambitQuad     = 2
	gambitTriangle = 3
)

// ReadGambit2D reads a 2D Gambit neutral file, boundary condition sets become named boundaries
func ReadGambit2D(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseGambit2D(file)
}

/*
ParseGambit2D reads the sections of a neutral file by their headers:

	     NUMNP     NELEM     NGRPS    NBSETS     NDFCD     NDFVL
	       146       242         1         3         2         2
	ENDOFSECTION
	   NODAL COORDINATES 2.4.6
	         1  0.0  0.0
	      ELEMENTS/CELLS 2.4.6
	         1  3  3        1       2       3
	 BOUNDARY CONDITIONS 2.4.6
	                            In       1      18       0       6
	         1   3   1

Element groups are skipped. Boundary entries are element, element type, face with face i
joining element vertices i and i+1, all one based.
*/
func ParseGambit2D(r io.Reader) (mesh *Mesh, err error) {
	var (
		scanner          = bufio.NewScanner(r)
		lineNo           int
		numNodes, numEls int
		numBCs, nsd      int
		next             = func() (fields []string, ok bool) {
			for scanner.Scan() {
				lineNo++
				if fields = strings.Fields(scanner.Text()); len(fields) != 0 {
					return fields, true
				}
			}
			return nil, false
		}
		ints = func(fields []string, n int) (vals []int, err error) {
			if len(fields) < n {
				return nil, fmt.Errorf("line %d: read %d values, need %d", lineNo, len(fields), n)
			}
			vals = make([]int, n)
			for i := range vals {
				if vals[i], err = strconv.Atoi(fields[i]); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
			}
			return
		}
	)
	mesh = NewMesh(2)
	for {
		fields, ok := next()
		if !ok {
			break
		}
		line := strings.Join(fields, " ")
		switch {
		case fields[0] == "NUMNP":
			if fields, ok = next(); !ok {
				return nil, fmt.Errorf("unexpected end of file reading the header")
			}
			var vals []int
			if vals, err = ints(fields, 5); err != nil {
				return nil, err
			}
			numNodes, numEls, numBCs, nsd = vals[0], vals[1], vals[3], vals[4]
			if nsd != 2 {
				return nil, fmt.Errorf("only 2D meshes are supported, got %d space dimensions", nsd)
			}

		case strings.HasPrefix(line, "NODAL COORDINATES"):
			mesh.Vertices = make([]types.Point, numNodes)
			for i := 0; i < numNodes; i++ {
				if fields, ok = next(); !ok || len(fields) < 3 {
					return nil, fmt.Errorf("unable to read coordinates of node %d", i+1)
				}
				var ind int
				if ind, err = strconv.Atoi(fields[0]); err != nil || ind < 1 || ind > numNodes {
					return nil, fmt.Errorf("line %d: bad node index [%s]", lineNo, fields[0])
				}
				for j := 0; j < 2; j++ {
					if mesh.Vertices[ind-1][j], err = strconv.ParseFloat(fields[j+1], 64); err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNo, err)
					}
				}
			}

		case strings.HasPrefix(line, "ELEMENTS/CELLS"):
			mesh.Elements = make([][]int, numEls)
			mesh.ElementTypes = make([]ElementType, numEls)
			for i := 0; i < numEls; i++ {
				if fields, ok = next(); !ok {
					return nil, fmt.Errorf("unexpected end of file reading element %d", i+1)
				}
				var head []int
				if head, err = ints(fields, 3); err != nil {
					return nil, err
				}
				ind, etype, ndp := head[0], head[1], head[2]
				if ind < 1 || ind > numEls {
					return nil, fmt.Errorf("line %d: element index %d out of range", lineNo, ind)
				}
				switch {
				case etype == gambitTriangle && ndp == 3:
					mesh.ElementTypes[ind-1] = Triangle
				case etype == gambitQuad && ndp == 4:
					mesh.ElementTypes[ind-1] = Quad
				default:
					return nil, fmt.Errorf("line %d: unsupported element type %d with %d nodes",
						lineNo, etype, ndp)
				}
				var verts []int
				if verts, err = ints(fields[3:], ndp); err != nil {
					return nil, err
				}
				for j := range verts {
					verts[j]--
				}
				mesh.Elements[ind-1] = verts
			}

		case strings.HasPrefix(line, "BOUNDARY CONDITIONS"):
			if fields, ok = next(); !ok || len(fields) < 3 {
				return nil, fmt.Errorf("unexpected end of file reading a boundary condition set")
			}
			var (
				name    = strings.ToLower(fields[0])
				vals    []int
				bid     = mesh.AddBoundary(name)
				entries int
			)
			if vals, err = ints(fields[1:], 2); err != nil {
				return nil, err
			}
			if vals[0] != 1 {
				return nil, fmt.Errorf("line %d: boundary set %s is not an element face set", lineNo, name)
			}
			entries = vals[1]
			for i := 0; i < entries; i++ {
				if fields, ok = next(); !ok {
					return nil, fmt.Errorf("unexpected end of file in boundary set %s", name)
				}
				var entry []int
				if entry, err = ints(fields, 3); err != nil {
					return nil, err
				}
				k, face := entry[0]-1, entry[2]-1
				if k < 0 || k >= len(mesh.Elements) || mesh.Elements[k] == nil {
					return nil, fmt.Errorf("line %d: boundary element %d is not defined", lineNo, k+1)
				}
				verts := mesh.Elements[k]
				if face < 0 || face >= len(verts) {
					return nil, fmt.Errorf("line %d: element %d has no face %d", lineNo, k+1, face+1)
				}
				mesh.TagBoundaryFace(bid, [2]int{verts[face], verts[(face+1)%len(verts)]})
			}
			numBCs--
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if numBCs > 0 {
		return nil, fmt.Errorf("missing %d boundary condition sets", numBCs)
	}
	for k, verts := range mesh.Elements {
		if verts == nil {
			return nil, fmt.Errorf("element %d is not defined", k+1)
		}
	}
	if err = mesh.BuildConnectivity(); err != nil {
		return nil, err
	}
	if err = mesh.BuildFaceInfo(); err != nil {
		return nil, err
	}
	return mesh, nil
}
