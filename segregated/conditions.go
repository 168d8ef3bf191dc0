package segregated

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/notargets/insfv/bcs"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// BoundarySpec is one boundary condition as a user writes it, e.g. no-slip-wall on top for v = 0
type BoundarySpec struct {
	Category string
	Boundary string
	Variable string // u, v, w or pressure
	Value    *float64
}

/*
ExpandVariable maps a user variable onto the fields of both sub-problems that need its
boundary values. Velocity conditions act on the predicted and the advecting velocity, pressure
conditions on the pressure and its snapshot so both cell gradients see the same boundary.
*/
func ExpandVariable(name string) (names []string, err error) {
	switch name {
	case "u":
		return []string{UStar, UAdv}, nil
	case "v":
		return []string{VStar, VAdv}, nil
	case "w":
		return []string{WStar, WAdv}, nil
	case "pressure", "p":
		return []string{Pressure, PressureOld}, nil
	}
	return nil, types.NewConfigurationError("BCs", "variable",
		"unknown boundary condition variable [%s], use u, v, w or pressure", name)
}

// BuildRegistry resolves boundary names on the mesh and registers every expanded condition
func BuildRegistry(m *mesh.Mesh, specs []BoundarySpec) (reg *bcs.Registry, err error) {
	reg = bcs.NewRegistry()
	for _, s := range specs {
		var (
			cat   types.BCCATEGORY
			bid   int
			names []string
		)
		if cat, err = types.ParseBCCategory(s.Category); err != nil {
			return nil, err
		}
		if bid, err = m.BoundaryID(s.Boundary); err != nil {
			return nil, err
		}
		if names, err = ExpandVariable(s.Variable); err != nil {
			return nil, err
		}
		for _, name := range names {
			c := bcs.Condition{
				Name:       fmt.Sprintf("%s_%s_%s", s.Category, s.Boundary, name),
				Category:   cat,
				Boundaries: []int{bid},
				Variable:   name,
			}
			if s.Value != nil {
				c.HasValue, c.Value = true, *s.Value
			}
			if err = reg.Add(c); err != nil {
				return nil, err
			}
		}
	}
	return
}

// ChannelSpecs is a uniform inlet on the left, an outlet pressure on the right, no-slip walls
func ChannelSpecs(inlet, outletPressure float64) (specs []BoundarySpec) {
	var (
		zero = 0.
		u    = inlet
		p    = outletPressure
	)
	specs = []BoundarySpec{
		{Category: "flow", Boundary: "left", Variable: "u", Value: &u},
		{Category: "flow", Boundary: "left", Variable: "v", Value: &zero},
		{Category: "fully-developed-flow", Boundary: "right", Variable: "pressure", Value: &p},
	}
	for _, wall := range []string{"bottom", "top"} {
		for _, vel := range []string{"u", "v"} {
			specs = append(specs, BoundarySpec{Category: "no-slip-wall", Boundary: wall, Variable: vel, Value: &zero})
		}
	}
	return
}

// SortSpecs orders specs by boundary, category and variable so registries build reproducibly
func SortSpecs(specs []BoundarySpec) {
	sort.SliceStable(specs, func(i, j int) bool {
		a, b := specs[i], specs[j]
		if a.Boundary != b.Boundary {
			return a.Boundary < b.Boundary
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Variable < b.Variable
	})
}

type ChannelParams struct {
	NX, NY         int
	LX, LY         float64
	InletVelocity  float64
	OutletPressure float64
}

// NewChannel builds the quad channel with ChannelSpecs and an orchestrator on it
func NewChannel(cp ChannelParams, p Params, logger *zap.Logger) (o *Orchestrator, err error) {
	var (
		m   *mesh.Mesh
		reg *bcs.Registry
	)
	if m, err = mesh.NewChannelMesh(cp.NX, cp.NY, cp.LX, cp.LY); err != nil {
		return
	}
	if reg, err = BuildRegistry(m, ChannelSpecs(cp.InletVelocity, cp.OutletPressure)); err != nil {
		return
	}
	return NewOrchestrator(m, reg, p, logger)
}
