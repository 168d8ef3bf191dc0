package mesh

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/insfv/types"
)

func TestChannelMesh(t *testing.T) {
	m, err := NewChannelMesh(3, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, m.NumElements)
	assert.Equal(t, 12, m.NumVertices)
	assert.Equal(t, 3*3+2*4, m.NumFaces)
	assert.Equal(t, []int{Left, Right, Bottom, Top}, m.SubdomainBoundaryIDs(nil))
	assert.Equal(t, []string{"left", "right", "bottom", "top"}, m.BoundaryNames)
	{ // Element geometry
		assert.InDelta(t, 1., m.Volumes[0], 1.e-14)
		assert.InDelta(t, 0.5, m.Centroids[0][0], 1.e-14)
		assert.InDelta(t, 1.5, m.Centroids[5][1], 1.e-14)
		assert.InDelta(t, 2.5, m.Centroids[5][0], 1.e-14)
	}
	{ // Neighbors of the interior element in the lower row
		assert.ElementsMatch(t, []int{-1, 0, 2, 4}, m.EToE[1])
	}
	{ // Faces close around each element
		for k := 0; k < m.NumElements; k++ {
			var sum types.Point
			for _, faceID := range m.EToF[k] {
				of, err := m.FaceInfos[faceID].From(k)
				require.NoError(t, err)
				sum = sum.Add(of.OutSurfaceVector())
			}
			assert.InDelta(t, 0., sum.Norm(), 1.e-14)
		}
	}
	{ // Interior and boundary face records
		for _, fi := range m.FaceInfos {
			assert.InDelta(t, 1., fi.Normal.Norm(), 1.e-14)
			assert.InDelta(t, 0.5, fi.GC, 1.e-14)
			assert.InDelta(t, 1., fi.DCFMag, 1.e-14)
			assert.True(t, fi.Normal.Dot(fi.DCF) > 0)
			if fi.IsBoundary() {
				mid := fi.ElemCentroid.Add(fi.NeighborCentroid).Scale(0.5)
				assert.InDelta(t, 0., mid.Sub(fi.FaceCentroid).Norm(), 1.e-14)
				assert.Equal(t, fi.ElemVolume, fi.NeighborVolume)
			} else {
				assert.Equal(t, -1, fi.BoundaryID)
			}
		}
		fi := &m.FaceInfos[m.EToF[0][0]] // Bottom face of element 0
		assert.Equal(t, Bottom, fi.BoundaryID)
		assert.InDelta(t, -1., fi.Normal[1], 1.e-14)
	}
	{ // Orientation from the neighbor's side flips the normal
		var fi *FaceInfo
		for i := range m.FaceInfos {
			if m.FaceInfos[i].Elem == 0 && m.FaceInfos[i].Neighbor == 1 {
				fi = &m.FaceInfos[i]
			}
		}
		require.NotNil(t, fi)
		of, err := fi.From(1)
		require.NoError(t, err)
		assert.Equal(t, fi.Normal.Scale(-1), of.OutNormal)
		assert.Equal(t, 0, of.Other)
		_, err = fi.From(4)
		var iv *types.InternalInvariantViolation
		assert.True(t, errors.As(err, &iv))
	}
	{
		bid, err := m.BoundaryID("top")
		assert.NoError(t, err)
		assert.Equal(t, Top, bid)
		_, err = m.BoundaryID("outlet")
		var ce *types.ConfigurationError
		assert.ErrorAs(t, err, &ce)
		assert.Equal(t, "boundary_9", m.BoundaryName(9))
	}
	_, err = NewChannelMesh(0, 1, 1, 1)
	assert.Error(t, err)
}

func TestLineMesh(t *testing.T) {
	m, err := NewLineMesh(2, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Dim)
	assert.Equal(t, 3, m.NumFaces)
	assert.Equal(t, []float64{3, 3}, m.Volumes)
	assert.Equal(t, []int{Left, Right}, m.SubdomainBoundaryIDs(nil))
	interior := 0
	for _, fi := range m.FaceInfos {
		assert.Equal(t, 3., fi.Area)
		assert.Equal(t, types.Point{1, 0, 0}, fi.Normal.Scale(math.Copysign(1, fi.Normal[0])))
		if !fi.IsBoundary() {
			interior++
			assert.Equal(t, types.Point{1, 0, 0}, fi.Normal)
			assert.InDelta(t, 1., fi.DCFMag, 1.e-14)
		}
	}
	assert.Equal(t, 1, interior)
	left := m.FaceInfos[m.EToF[0][0]]
	assert.Equal(t, types.Point{-1, 0, 0}, left.Normal)
	assert.InDelta(t, -0.5, left.NeighborCentroid[0], 1.e-14)
}

func TestSubdomainBoundaries(t *testing.T) {
	m, err := NewChannelMesh(4, 1, 4, 1)
	require.NoError(t, err)
	// Only the two left cells in subdomain 1
	m.Subdomains = []int{1, 1, 0, 0}
	if diff := cmp.Diff([]int{Left, Bottom, Top}, m.SubdomainBoundaryIDs([]int{1})); diff != "" {
		t.Errorf("subdomain boundaries mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordSystem(t *testing.T) {
	cs, err := ParseCoordSystem("rz")
	require.NoError(t, err)
	assert.Equal(t, RZ, cs)
	assert.InDelta(t, 2*math.Pi*0.5, cs.Factor(types.Point{0.5, 7, 0}), 1.e-14)
	assert.Equal(t, 1., XYZ.Factor(types.Point{0.5, 7, 0}))
	_, err = ParseCoordSystem("polar")
	assert.Error(t, err)
	m, err := NewChannelMesh(2, 1, 2, 1)
	require.NoError(t, err)
	m.Coord = RZ
	require.NoError(t, m.BuildFaceInfo())
	assert.InDelta(t, 2*math.Pi*0.5, m.ElemCoord(0), 1.e-14)
}

const su2Square = `%
% Unit square split into two triangles
%
NDIME= 2
NELEM= 2
5 0 1 2 0
5 0 2 3 1
NPOIN= 4
0.0 0.0 0
1.0 0.0 1
1.0 1.0 2
0.0 1.0 3
NMARK= 2
MARKER_TAG= wall
MARKER_ELEMS= 2
3 0 1
3 2 3
MARKER_TAG= sides
MARKER_ELEMS= 2
3 1 2
3 3 0
`

func TestReadSU2(t *testing.T) {
	{
		m, err := ParseSU2(strings.NewReader(su2Square))
		require.NoError(t, err)
		assert.Equal(t, 2, m.NumElements)
		assert.Equal(t, 5, m.NumFaces)
		assert.Equal(t, []string{"wall", "sides"}, m.BoundaryNames)
		assert.InDelta(t, 0.5, m.Volumes[0], 1.e-14)
		assert.InDelta(t, 2./3., m.Centroids[0][0], 1.e-14)
		assert.InDelta(t, 1./3., m.Centroids[0][1], 1.e-14)
		for _, fi := range m.FaceInfos {
			if !fi.IsBoundary() {
				assert.InDelta(t, math.Sqrt(2), fi.Area, 1.e-14)
				assert.InDelta(t, 0.5, fi.GC, 1.e-14)
			}
		}
	}
	{ // By file name
		fname := filepath.Join(t.TempDir(), "square.su2")
		require.NoError(t, os.WriteFile(fname, []byte(su2Square), 0644))
		m, err := ReadMeshFile(fname)
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumVertices)
		_, err = ReadMeshFile("square.neu")
		assert.Error(t, err)
	}
	{ // Untagged boundary faces and 3D files are rejected
		_, err := ParseSU2(strings.NewReader(strings.Replace(su2Square, "NMARK= 2", "NMARK= 1", 1)))
		assert.Error(t, err)
		_, err = ParseSU2(strings.NewReader(strings.Replace(su2Square, "NDIME= 2", "NDIME= 3", 1)))
		assert.Error(t, err)
	}
}

const gambitSquare = `        CONTROL INFO 2.4.6
** GAMBIT NEUTRAL FILE
square
PROGRAM:                Gambit     VERSION:  2.4.6
Jul 2020
     NUMNP     NELEM     NGRPS    NBSETS     NDFCD     NDFVL
         4         2         1         2         2         2
ENDOFSECTION
   NODAL COORDINATES 2.4.6
         1   0.00000000000e+00   0.00000000000e+00
         2   1.00000000000e+00   0.00000000000e+00
         3   1.00000000000e+00   1.00000000000e+00
         4   0.00000000000e+00   1.00000000000e+00
ENDOFSECTION
      ELEMENTS/CELLS 2.4.6
         1  3  3        1       2       3
         2  3  3        1       3       4
ENDOFSECTION
       ELEMENT GROUP 2.4.6
GROUP:           1 ELEMENTS:          2 MATERIAL:          2 NFLAGS:          1
                           fluid
       0
       1       2
ENDOFSECTION
 BOUNDARY CONDITIONS 2.4.6
                          Wall       1       2       0       6
         1         3         1
         2         3         2
ENDOFSECTION
 BOUNDARY CONDITIONS 2.4.6
                         Sides       1       2       0       6
         1         3         2
         2         3         3
ENDOFSECTION
`

func TestReadGambit(t *testing.T) {
	{
		m, err := ParseGambit2D(strings.NewReader(gambitSquare))
		require.NoError(t, err)
		assert.Equal(t, 2, m.NumElements)
		assert.Equal(t, 5, m.NumFaces)
		assert.Equal(t, []string{"wall", "sides"}, m.BoundaryNames)
		assert.Equal(t, []int{0, 1, 2}, m.Elements[0])
		assert.InDelta(t, 0.5, m.Volumes[1], 1.e-14)
		assert.InDelta(t, 2./3., m.Centroids[0][0], 1.e-14)
	}
	{ // By file name
		fname := filepath.Join(t.TempDir(), "square.neu")
		require.NoError(t, os.WriteFile(fname, []byte(gambitSquare), 0644))
		m, err := ReadMeshFile(fname)
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumVertices)
	}
	{ // Missing boundary sets and bad face numbers are rejected
		_, err := ParseGambit2D(strings.NewReader(strings.Replace(gambitSquare,
			"         4         2         1         2", "         4         2         1         3", 1)))
		assert.Error(t, err)
		_, err = ParseGambit2D(strings.NewReader(strings.Replace(gambitSquare,
			"         2         3         3\n", "         2         3         4\n", 1)))
		assert.Error(t, err)
	}
}
