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

// From here: https://su2code.github.io/docs_v7/Mesh-File/
const (
	su2Line          = 3
	su2Triangle      = 5
	su2Quadrilateral = 9
)

// ReadSU2 reads a 2D SU2 native format file, markers become named boundaries
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseSU2(file)
}

func ParseSU2(r io.Reader) (mesh *Mesh, err error) {
	var (
		scanner = bufio.NewScanner(r)
		ndime   int
		lineNo  int
		next    = func() (fields []string, ok bool) {
			for scanner.Scan() {
				lineNo++
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "%") {
					continue
				}
				return strings.Fields(line), true
			}
			return nil, false
		}
		keyword = func(fields []string, key string) (val string, ok bool) {
			line := strings.Join(fields, " ")
			if !strings.HasPrefix(line, key+"=") {
				return "", false
			}
			return strings.TrimSpace(strings.TrimPrefix(line, key+"=")), true
		}
		count = func(fields []string, key string) (n int, err error) {
			val, ok := keyword(fields, key)
			if !ok {
				return 0, fmt.Errorf("line %d: expected %s=", lineNo, key)
			}
			// NPOIN can carry a second count of domain points, only the first is used
			if parts := strings.Fields(val); len(parts) != 0 {
				val = parts[0]
			}
			if n, err = strconv.Atoi(val); err != nil {
				return 0, fmt.Errorf("line %d: bad %s count: %w", lineNo, key, err)
			}
			return
		}
		ints = func(fields []string) (vals []int, err error) {
			vals = make([]int, len(fields))
			for i, f := range fields {
				if vals[i], err = strconv.Atoi(f); err != nil {
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
		switch {
		case strings.HasPrefix(fields[0], "NDIME="):
			if ndime, err = count(fields, "NDIME"); err != nil {
				return nil, err
			}
			if ndime != 2 {
				return nil, fmt.Errorf("only 2D meshes are supported, got NDIME=%d", ndime)
			}

		case strings.HasPrefix(fields[0], "NELEM="):
			var nelem int
			if nelem, err = count(fields, "NELEM"); err != nil {
				return nil, err
			}
			mesh.Elements = make([][]int, 0, nelem)
			mesh.ElementTypes = make([]ElementType, 0, nelem)
			for i := 0; i < nelem; i++ {
				if fields, ok = next(); !ok {
					return nil, fmt.Errorf("unexpected end of file reading element %d", i)
				}
				var vals []int
				if vals, err = ints(fields); err != nil {
					return nil, err
				}
				var (
					etype    ElementType
					numNodes int
				)
				switch vals[0] {
				case su2Triangle:
					etype, numNodes = Triangle, 3
				case su2Quadrilateral:
					etype, numNodes = Quad, 4
				default:
					return nil, fmt.Errorf("line %d: unsupported SU2 element type %d", lineNo, vals[0])
				}
				if len(vals) < numNodes+1 {
					return nil, fmt.Errorf("line %d: element has %d of %d vertices",
						lineNo, len(vals)-1, numNodes)
				}
				verts := make([]int, numNodes)
				copy(verts, vals[1:numNodes+1])
				mesh.Elements = append(mesh.Elements, verts)
				mesh.ElementTypes = append(mesh.ElementTypes, etype)
			}

		case strings.HasPrefix(fields[0], "NPOIN="):
			var npoin int
			if npoin, err = count(fields, "NPOIN"); err != nil {
				return nil, err
			}
			mesh.Vertices = make([]types.Point, npoin)
			for i := 0; i < npoin; i++ {
				if fields, ok = next(); !ok || len(fields) < ndime {
					return nil, fmt.Errorf("unable to read coordinates of point %d", i)
				}
				var coords types.Point
				for j := 0; j < ndime; j++ {
					if coords[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNo, err)
					}
				}
				ptID := i
				if len(fields) > ndime {
					// Point ID is the last field when present
					if ptID, err = strconv.Atoi(fields[len(fields)-1]); err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNo, err)
					}
				}
				if ptID < 0 || ptID >= npoin {
					return nil, fmt.Errorf("line %d: point ID %d out of range", lineNo, ptID)
				}
				mesh.Vertices[ptID] = coords
			}

		case strings.HasPrefix(fields[0], "NMARK="):
			var nmark int
			if nmark, err = count(fields, "NMARK"); err != nil {
				return nil, err
			}
			for i := 0; i < nmark; i++ {
				if fields, ok = next(); !ok {
					return nil, fmt.Errorf("unexpected end of file reading marker %d", i)
				}
				tagName, isTag := keyword(fields, "MARKER_TAG")
				if !isTag {
					return nil, fmt.Errorf("line %d: expected MARKER_TAG=", lineNo)
				}
				bid := mesh.AddBoundary(tagName)
				if fields, ok = next(); !ok {
					return nil, fmt.Errorf("unexpected end of file reading marker %s", tagName)
				}
				var nMarkerElems int
				if nMarkerElems, err = count(fields, "MARKER_ELEMS"); err != nil {
					return nil, err
				}
				for j := 0; j < nMarkerElems; j++ {
					if fields, ok = next(); !ok {
						return nil, fmt.Errorf("unexpected end of file in marker %s", tagName)
					}
					var vals []int
					if vals, err = ints(fields); err != nil {
						return nil, err
					}
					if vals[0] != su2Line || len(vals) < 3 {
						return nil, fmt.Errorf("line %d: markers should only contain line elements in 2D",
							lineNo)
					}
					mesh.TagBoundaryFace(bid, [2]int{vals[1], vals[2]})
				}
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	if err = mesh.BuildConnectivity(); err != nil {
		return nil, err
	}
	if err = mesh.BuildFaceInfo(); err != nil {
		return nil, err
	}
	return mesh, nil
}
