package insfv

import (
	"sort"

	"github.com/notargets/insfv/bcs"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

/*
BoundaryClassifier sorts the boundaries touching a kernel into flow, no-slip wall, slip wall
and symmetry. Fully developed flow boundaries are a subset of the flow boundaries.
*/
type BoundaryClassifier struct {
	Object         string
	Flow           map[int]bool
	FullyDeveloped map[int]bool
	NoSlipWall     map[int]bool
	SlipWall       map[int]bool
	Symmetry       map[int]bool
	All            map[int]bool
}

func NewBoundaryClassifier(object string) *BoundaryClassifier {
	bc := &BoundaryClassifier{Object: object}
	bc.reset()
	return bc
}

func (bc *BoundaryClassifier) reset() {
	bc.Flow = make(map[int]bool)
	bc.FullyDeveloped = make(map[int]bool)
	bc.NoSlipWall = make(map[int]bool)
	bc.SlipWall = make(map[int]bool)
	bc.Symmetry = make(map[int]bool)
	bc.All = make(map[int]bool)
}

/*
Classify scans each boundary once. Only conditions acting on the given variables are
considered, plain dirichlet conditions never classify a boundary. Running it again over the
same input gives the same sets.
*/
func (bc *BoundaryClassifier) Classify(m *mesh.Mesh, reg *bcs.Registry, boundaryIDs []int,
	variables ...string) (err error) {
	bc.reset()
	for _, bid := range boundaryIDs {
		var (
			conds      = reg.Conditions(bid, variables...)
			categories = make(map[types.BCCATEGORY][]*bcs.Condition)
		)
		for _, c := range conds {
			switch c.Category {
			case types.BC_Flow, types.BC_FullyDevelopedFlow:
				categories[types.BC_Flow] = append(categories[types.BC_Flow], c)
			case types.BC_NoSlipWall, types.BC_SlipWall, types.BC_Symmetry:
				categories[c.Category] = append(categories[c.Category], c)
			}
		}
		if len(categories) > 1 {
			var names []string
			for cat := range categories {
				names = append(names, cat.String())
			}
			sort.Strings(names)
			return types.NewConfigurationError(bc.Object, "BCs",
				"boundary %s carries conditions of more than one category: %v",
				m.BoundaryName(bid), names)
		}
		if flow, ok := categories[types.BC_Flow]; ok {
			fullyDeveloped := flow[0].Category == types.BC_FullyDevelopedFlow
			for _, c := range flow[1:] {
				if (c.Category == types.BC_FullyDevelopedFlow) != fullyDeveloped {
					return types.NewConfigurationError(bc.Object, "BCs",
						"boundary %s mixes fully developed and not fully developed flow conditions "+
							"(%s is %s, %s is %s)", m.BoundaryName(bid),
						flow[0].Name, flow[0].Category, c.Name, c.Category)
				}
			}
			bc.Flow[bid] = true
			if fullyDeveloped {
				bc.FullyDeveloped[bid] = true
			}
			bc.All[bid] = true
			continue
		}
		for cat := range categories {
			switch cat {
			case types.BC_NoSlipWall:
				bc.NoSlipWall[bid] = true
			case types.BC_SlipWall:
				bc.SlipWall[bid] = true
			case types.BC_Symmetry:
				bc.Symmetry[bid] = true
			}
			bc.All[bid] = true
		}
	}
	return
}

// VerifyCoverage fails for the first connected boundary that no category claims
func (bc *BoundaryClassifier) VerifyCoverage(m *mesh.Mesh, boundaryIDs []int) error {
	for _, bid := range boundaryIDs {
		if !bc.All[bid] {
			return types.NewConfigurationError(bc.Object, "BCs",
				"not completely bounded by flow, no-slip-wall, slip-wall or symmetry conditions, "+
					"please examine boundary %s", m.BoundaryName(bid))
		}
	}
	return nil
}

// Category of a classified boundary, BC_None for anything else
func (bc *BoundaryClassifier) Category(bid int) types.BCCATEGORY {
	switch {
	case bc.NoSlipWall[bid]:
		return types.BC_NoSlipWall
	case bc.SlipWall[bid]:
		return types.BC_SlipWall
	case bc.FullyDeveloped[bid]:
		return types.BC_FullyDevelopedFlow
	case bc.Flow[bid]:
		return types.BC_Flow
	case bc.Symmetry[bid]:
		return types.BC_Symmetry
	}
	return types.BC_None
}
