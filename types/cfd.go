package types

import (
	"fmt"
	"strings"
)

// BCCATEGORY is the incompressible flow category of a boundary condition
type BCCATEGORY uint8

const (
	BC_None BCCATEGORY = iota
	BC_Flow
	BC_FullyDevelopedFlow
	BC_NoSlipWall
	BC_SlipWall
	BC_Symmetry
	BC_Dirichlet // Plain value condition, not one of the INSFV categories
)

var BCNameMap = map[string]BCCATEGORY{
	"flow":                 BC_Flow,
	"fully-developed-flow": BC_FullyDevelopedFlow,
	"no-slip-wall":         BC_NoSlipWall,
	"slip-wall":            BC_SlipWall,
	"symmetry":             BC_Symmetry,
	"dirichlet":            BC_Dirichlet,
}

func (bc BCCATEGORY) String() string {
	for name, cat := range BCNameMap {
		if cat == bc {
			return name
		}
	}
	return "none"
}

// IsFlow is true for both flow categories, fully developed flow is a flow condition
func (bc BCCATEGORY) IsFlow() bool {
	return bc == BC_Flow || bc == BC_FullyDevelopedFlow
}

// ParseBCCategory is case sensitive, category names are part of the input contract
func ParseBCCategory(name string) (bc BCCATEGORY, err error) {
	var ok bool
	if bc, ok = BCNameMap[strings.TrimSpace(name)]; !ok {
		err = &ConfigurationError{
			Param: "BCs",
			Msg:   fmt.Sprintf("unrecognized boundary condition category [%s]", name),
		}
	}
	return
}
