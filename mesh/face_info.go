package mesh

import (
	"fmt"

	"github.com/notargets/insfv/types"
)

/*
FaceInfo is the immutable geometric record of one face. The normal points from Elem to
Neighbor. On the boundary Neighbor is -1 and the neighbor centroid is a ghost point, the
element centroid mirrored through the face centroid, with the element's volume.
*/
type FaceInfo struct {
	ID                             int
	Elem, Neighbor                 int
	Normal                         types.Point
	Area                           float64
	FaceCentroid                   types.Point
	ElemCentroid, NeighborCentroid types.Point
	ElemVolume, NeighborVolume     float64
	GC                             float64     // Weight of the elem value in a linear interpolation
	DCF                            types.Point // NeighborCentroid - ElemCentroid
	DCFMag                         float64
	ECF                            types.Point // Unit DCF
	BoundaryID                     int         // -1 for interior faces
	FaceCoord                      float64     // Coordinate factor at the face centroid
	ElemCoord, NeighborCoord       float64
}

func (fi *FaceInfo) IsBoundary() bool { return fi.Neighbor == -1 }

// SurfaceVector is n*A*coord, the face area vector used for fluxes
func (fi *FaceInfo) SurfaceVector() types.Point {
	return fi.Normal.Scale(fi.Area * fi.FaceCoord)
}

func (fi *FaceInfo) SurfaceArea() float64 { return fi.Area * fi.FaceCoord }

// Sign is +1 when elem owns the face and -1 when elem is the neighbor
func (fi *FaceInfo) Sign(elem int) (float64, error) {
	switch elem {
	case fi.Elem:
		return 1, nil
	case fi.Neighbor:
		return -1, nil
	}
	return 0, types.NewInvariantViolation("FaceInfo.Sign",
		"element %d is neither elem %d nor neighbor %d of face %d",
		elem, fi.Elem, fi.Neighbor, fi.ID)
}

/*
OrientedFace is a face as seen from one of its elements, the normal points out of Self.
*/
type OrientedFace struct {
	*FaceInfo
	Self, Other                 int // Other is -1 on the boundary
	OutNormal                   types.Point
	SelfCentroid, OtherCentroid types.Point
	SelfVolume                  float64
	SelfCoord                   float64
}

func (fi *FaceInfo) From(elem int) (of OrientedFace, err error) {
	var sign float64
	if sign, err = fi.Sign(elem); err != nil {
		return
	}
	of = OrientedFace{
		FaceInfo:  fi,
		OutNormal: fi.Normal.Scale(sign),
	}
	if sign > 0 {
		of.Self, of.Other = fi.Elem, fi.Neighbor
		of.SelfCentroid, of.OtherCentroid = fi.ElemCentroid, fi.NeighborCentroid
		of.SelfVolume, of.SelfCoord = fi.ElemVolume, fi.ElemCoord
	} else {
		of.Self, of.Other = fi.Neighbor, fi.Elem
		of.SelfCentroid, of.OtherCentroid = fi.NeighborCentroid, fi.ElemCentroid
		of.SelfVolume, of.SelfCoord = fi.NeighborVolume, fi.NeighborCoord
	}
	return
}

// OutSurfaceVector is n*A*coord with n pointing out of Self
func (of OrientedFace) OutSurfaceVector() types.Point {
	return of.OutNormal.Scale(of.Area * of.FaceCoord)
}

// BuildFaceInfo computes element volumes, centroids and the face records
func (m *Mesh) BuildFaceInfo() (err error) {
	if m.NumFaces == 0 || len(m.EToF) != len(m.Elements) {
		if err = m.BuildConnectivity(); err != nil {
			return
		}
	}
	m.Volumes = make([]float64, m.NumElements)
	m.Centroids = make([]types.Point, m.NumElements)
	for k := 0; k < m.NumElements; k++ {
		if m.Volumes[k], m.Centroids[k], err = m.elementGeometry(k); err != nil {
			return
		}
	}
	m.FaceInfos = make([]FaceInfo, m.NumFaces)
	for faceID, face := range m.Faces {
		var (
			fi = &m.FaceInfos[faceID]
			xC = m.Centroids[face.Element]
		)
		fi.ID = faceID
		fi.Elem, fi.Neighbor = face.Element, face.Neighbor
		fi.BoundaryID = face.BoundaryID
		fi.Area, fi.FaceCentroid, fi.Normal = m.faceGeometry(face, xC)
		fi.ElemCentroid, fi.ElemVolume = xC, m.Volumes[face.Element]
		if face.Neighbor == -1 {
			fi.NeighborCentroid = fi.FaceCentroid.Scale(2).Sub(xC)
			fi.NeighborVolume = fi.ElemVolume
		} else {
			fi.NeighborCentroid = m.Centroids[face.Neighbor]
			fi.NeighborVolume = m.Volumes[face.Neighbor]
		}
		fi.DCF = fi.NeighborCentroid.Sub(xC)
		fi.DCFMag = fi.DCF.Norm()
		if fi.DCFMag == 0 {
			return fmt.Errorf("face %d has coincident element centroids", faceID)
		}
		fi.ECF = fi.DCF.Scale(1. / fi.DCFMag)
		fi.GC = fi.NeighborCentroid.Sub(fi.FaceCentroid).Dot(fi.ECF) / fi.DCFMag
		fi.FaceCoord = m.Coord.Factor(fi.FaceCentroid)
		fi.ElemCoord = m.Coord.Factor(xC)
		if face.Neighbor == -1 {
			fi.NeighborCoord = fi.ElemCoord
		} else {
			fi.NeighborCoord = m.Coord.Factor(fi.NeighborCentroid)
		}
	}
	return
}

// ElemCoord is the coordinate factor at an element centroid
func (m *Mesh) ElemCoord(elemID int) float64 {
	return m.Coord.Factor(m.Centroids[elemID])
}

// ElemFaces returns the face records incident to an element
func (m *Mesh) ElemFaces(elemID int) (fis []*FaceInfo) {
	fis = make([]*FaceInfo, len(m.EToF[elemID]))
	for i, faceID := range m.EToF[elemID] {
		fis[i] = &m.FaceInfos[faceID]
	}
	return
}
