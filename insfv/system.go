package insfv

import (
	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/types"
)

/*
System is one sub-problem seen by the nonlinear solver, a single unknown field and the
kernels whose residuals it zeroes. Radius is how many face neighbors away an unknown can
influence a residual row, 1 for the momentum kernels and 2 for the pressure predictor whose
face gradients use the neighbors' cell gradients.
*/
type System struct {
	Name      string
	Assembler *Assembler
	Kernels   []FluxKernel
	Unknown   *fields.Field
	Radius    int
}

func NewSystem(name string, as *Assembler, unknown *fields.Field, radius int,
	kernels ...FluxKernel) (s *System, err error) {
	if len(kernels) == 0 {
		return nil, types.NewConfigurationError(name, "kernels", "a system needs at least one kernel")
	}
	for _, k := range kernels {
		if k.Variable() != unknown {
			return nil, types.NewConfigurationError(name, "variable",
				"kernel %s acts on %s, the system unknown is %s", k.Name(), k.Variable().Name, unknown.Name)
		}
	}
	s = &System{
		Name:      name,
		Assembler: as,
		Kernels:   kernels,
		Unknown:   unknown,
		Radius:    radius,
	}
	return
}

func (s *System) Size() int                { return len(s.Unknown.Values) }
func (s *System) Values() []float64        { return s.Unknown.Values }
func (s *System) SetSeeds(seeds []float64) { s.Unknown.SetSeeds(seeds) }
func (s *System) StencilRadius() int       { return s.Radius }
func (s *System) Neighbors(k int) []int    { return s.Assembler.Mesh.EToE[k] }

func (s *System) Residual(r []types.ADReal) error {
	return s.Assembler.Residual(s.Kernels, r)
}

// Update adds a Newton step to the unknown
func (s *System) Update(delta []float64) {
	for k, d := range delta {
		s.Unknown.Values[k] += d
	}
	s.Unknown.Invalidate()
}
