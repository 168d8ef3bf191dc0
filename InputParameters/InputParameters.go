package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/segregated"
	"github.com/notargets/insfv/solver"
	"github.com/notargets/insfv/types"
)

// Channel describes the generated rectangular channel, used when no mesh file is given
type Channel struct {
	NX int     `json:"NX"`
	NY int     `json:"NY"`
	LX float64 `json:"LX"`
	LY float64 `json:"LY"`
}

// Tolerances override the Newton defaults where non zero
type Tolerances struct {
	MaxIterations int     `json:"MaxIterations"`
	AbsTol        float64 `json:"AbsTol"`
	RelTol        float64 `json:"RelTol"`
}

// Parameters obtained from the YAML input file
type InputParametersINS struct {
	Title           string     `json:"Title"`
	MeshFile        string     `json:"MeshFile"`
	Channel         Channel    `json:"Channel"`
	Mu              float64    `json:"Mu"`
	Rho             float64    `json:"Rho"`
	Relaxation      float64    `json:"Relaxation"`
	VelocityInterp  string     `json:"VelocityInterp"` // average or rc
	AdvectedInterp  string     `json:"AdvectedInterp"` // average or upwind
	OuterIterations int        `json:"OuterIterations"`
	ParallelDegree  int        `json:"ParallelDegree"`
	Transient       bool       `json:"Transient"`
	Dt              float64    `json:"Dt"`
	InitialVelocity []float64  `json:"InitialVelocity"`
	InitialPressure float64    `json:"InitialPressure"`
	Momentum        Tolerances `json:"Momentum"`
	Pressure        Tolerances `json:"Pressure"`

	// Implicit momentum under relaxation, 1 disables
	MomentumRelaxation float64 `json:"MomentumRelaxation"`

	// Category, then boundary name, then variable. A null value is a condition without a value.
	BCs map[string]map[string]map[string]*float64 `json:"BCs"`
}

func (ip *InputParametersINS) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParametersINS) Print() {
	p := ip.Params()
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	if len(ip.MeshFile) != 0 {
		fmt.Printf("[%s]\t= Mesh File\n", ip.MeshFile)
	} else {
		fmt.Printf("[%dx%d]\t\t\t= Channel Cells\n", ip.Channel.NX, ip.Channel.NY)
		fmt.Printf("[%gx%g]\t\t\t= Channel Size\n", ip.Channel.LX, ip.Channel.LY)
	}
	fmt.Printf("%8.5f\t\t= Mu\n", p.Mu)
	fmt.Printf("%8.5f\t\t= Rho\n", p.Rho)
	fmt.Printf("%8.5f\t\t= Relaxation\n", p.Relaxation)
	fmt.Printf("%8.5f\t\t= Momentum Relaxation\n", p.MomentumRelaxation)
	fmt.Printf("[%s]\t\t\t= Velocity Interpolation\n", p.VelocityInterp)
	fmt.Printf("[%s]\t\t= Advected Interpolation\n", p.AdvectedInterp)
	fmt.Printf("[%d]\t\t\t\t= Outer Iterations\n", p.OuterIterations)
	if p.Transient {
		fmt.Printf("%8.5f\t\t= Pseudo Time Step\n", p.Dt)
	}
	for _, s := range ip.Specs() {
		val := "none"
		if s.Value != nil {
			val = fmt.Sprintf("%g", *s.Value)
		}
		fmt.Printf("BCs[%s][%s][%s] = %s\n", s.Category, s.Boundary, s.Variable, val)
	}
}

// Params merges the input over the solver defaults
func (ip *InputParametersINS) Params() (p segregated.Params) {
	p = segregated.DefaultParams()
	setFloat := func(dst *float64, val float64) {
		if val != 0 {
			*dst = val
		}
	}
	setFloat(&p.Mu, ip.Mu)
	setFloat(&p.Rho, ip.Rho)
	setFloat(&p.Relaxation, ip.Relaxation)
	setFloat(&p.MomentumRelaxation, ip.MomentumRelaxation)
	if len(ip.VelocityInterp) != 0 {
		p.VelocityInterp = ip.VelocityInterp
	}
	if len(ip.AdvectedInterp) != 0 {
		p.AdvectedInterp = ip.AdvectedInterp
	}
	if ip.OuterIterations != 0 {
		p.OuterIterations = ip.OuterIterations
	}
	if ip.ParallelDegree != 0 {
		p.ParallelDegree = ip.ParallelDegree
	}
	p.Transient, p.Dt = ip.Transient, ip.Dt
	copy(p.InitialVelocity[:], ip.InitialVelocity)
	p.InitialPressure = ip.InitialPressure
	for _, tp := range []struct {
		dst *solver.Params
		src Tolerances
	}{{&p.Momentum, ip.Momentum}, {&p.Pressure, ip.Pressure}} {
		if tp.src.MaxIterations != 0 {
			tp.dst.MaxIterations = tp.src.MaxIterations
		}
		setFloat(&tp.dst.AbsTol, tp.src.AbsTol)
		setFloat(&tp.dst.RelTol, tp.src.RelTol)
	}
	return
}

// Specs flattens the BCs map into boundary specs in a reproducible order
func (ip *InputParametersINS) Specs() (specs []segregated.BoundarySpec) {
	for cat, byBoundary := range ip.BCs {
		for boundary, byVariable := range byBoundary {
			for variable, val := range byVariable {
				specs = append(specs, segregated.BoundarySpec{
					Category: cat,
					Boundary: boundary,
					Variable: variable,
					Value:    val,
				})
			}
		}
	}
	segregated.SortSpecs(specs)
	return
}

// Validate checks everything that can be checked without the mesh
func (ip *InputParametersINS) Validate() (err error) {
	p := ip.Params()
	switch {
	case len(ip.MeshFile) == 0 && (ip.Channel.NX < 1 || ip.Channel.NY < 1):
		return types.NewConfigurationError("input", "MeshFile",
			"a mesh file or a channel with NX and NY > 0 is required")
	case len(ip.MeshFile) == 0 && (ip.Channel.LX <= 0 || ip.Channel.LY <= 0):
		return types.NewConfigurationError("input", "Channel", "channel LX and LY must be positive")
	case p.Mu <= 0:
		return types.NewConfigurationError("input", "Mu", "viscosity must be positive, have %g", p.Mu)
	case p.Rho <= 0:
		return types.NewConfigurationError("input", "Rho", "density must be positive, have %g", p.Rho)
	case p.Relaxation <= 0 || p.Relaxation > 1:
		return types.NewConfigurationError("input", "Relaxation",
			"relaxation must be in (0,1], have %g", p.Relaxation)
	case p.MomentumRelaxation <= 0 || p.MomentumRelaxation > 1:
		return types.NewConfigurationError("input", "MomentumRelaxation",
			"momentum relaxation must be in (0,1], have %g", p.MomentumRelaxation)
	case p.OuterIterations < 1:
		return types.NewConfigurationError("input", "OuterIterations",
			"at least one outer iteration is required, have %d", p.OuterIterations)
	case p.Transient && p.Dt <= 0:
		return types.NewConfigurationError("input", "Dt", "a transient run needs a positive Dt")
	case len(ip.InitialVelocity) > 3:
		return types.NewConfigurationError("input", "InitialVelocity",
			"at most 3 components, have %d", len(ip.InitialVelocity))
	case len(ip.BCs) == 0:
		return types.NewConfigurationError("input", "BCs", "no boundary conditions")
	}
	cats := make([]string, 0, len(ip.BCs))
	for cat := range ip.BCs {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		if _, err = types.ParseBCCategory(cat); err != nil {
			return
		}
	}
	for _, s := range ip.Specs() {
		if _, err = segregated.ExpandVariable(s.Variable); err != nil {
			return
		}
	}
	return
}

// Mesh reads the mesh file, or generates the channel when there is none
func (ip *InputParametersINS) Mesh() (m *mesh.Mesh, err error) {
	if len(ip.MeshFile) != 0 {
		return mesh.ReadMeshFile(ip.MeshFile)
	}
	c := ip.Channel
	return mesh.NewChannelMesh(c.NX, c.NY, c.LX, c.LY)
}
