package bcs

import (
	"sort"

	"github.com/notargets/insfv/types"
)

/*
Condition attaches one boundary condition category to a set of boundaries for one variable.
Flow, no-slip and plain dirichlet conditions usually carry a value, slip walls and symmetry
planes do not. A fully developed flow condition with a value is a pressure outlet.
*/
type Condition struct {
	Name       string
	Category   types.BCCATEGORY
	Boundaries []int
	Variable   string
	HasValue   bool
	Value      float64
	Profile    func(p types.Point) float64 // Optional, overrides Value where set
}

func (c *Condition) ValueAt(p types.Point) float64 {
	if c.Profile != nil {
		return c.Profile(p)
	}
	return c.Value
}

// Registry is read only once the kernels are set up
type Registry struct {
	conditions []*Condition
	byBoundary map[int][]*Condition
}

func NewRegistry() *Registry {
	return &Registry{
		byBoundary: make(map[int][]*Condition),
	}
}

func (r *Registry) Add(c Condition) (err error) {
	if c.Category == types.BC_None {
		return types.NewConfigurationError(c.Name, "type", "boundary condition has no category")
	}
	if len(c.Variable) == 0 {
		return types.NewConfigurationError(c.Name, "variable", "boundary condition has no variable")
	}
	if len(c.Boundaries) == 0 {
		return types.NewConfigurationError(c.Name, "boundary", "boundary condition has no boundaries")
	}
	cc := c
	cc.Boundaries = append([]int(nil), c.Boundaries...)
	r.conditions = append(r.conditions, &cc)
	for _, bid := range cc.Boundaries {
		r.byBoundary[bid] = append(r.byBoundary[bid], &cc)
	}
	return
}

// Conditions returns the conditions on a boundary that act on any of the variables, in
// the order they were added
func (r *Registry) Conditions(bid int, variables ...string) (conds []*Condition) {
	for _, c := range r.byBoundary[bid] {
		for _, v := range variables {
			if c.Variable == v {
				conds = append(conds, c)
				break
			}
		}
	}
	return
}

// Dirichlet returns the value condition for a variable on a boundary, if one exists
func (r *Registry) Dirichlet(bid int, variable string) (c *Condition, ok bool) {
	for _, c = range r.byBoundary[bid] {
		if c.Variable == variable && c.HasValue {
			return c, true
		}
	}
	return nil, false
}

// Boundaries returns every boundary ID that carries a condition
func (r *Registry) Boundaries() (bids []int) {
	for bid := range r.byBoundary {
		bids = append(bids, bid)
	}
	sort.Ints(bids)
	return
}

func (r *Registry) Len() int { return len(r.conditions) }
