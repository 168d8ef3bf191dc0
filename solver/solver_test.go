package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notargets/insfv/types"
)

// chain is a 1D row of n unknowns with a three point residual
type chain struct {
	x, seeds []float64
	residual func(c *chain, k int) types.ADReal
	radius   int
	evals    int
}

func (c *chain) Size() int { return len(c.x) }
func (c *chain) Neighbors(k int) []int {
	left, right := k-1, k+1
	if right == len(c.x) {
		right = -1
	}
	return []int{left, right}
}
func (c *chain) Values() []float64        { return c.x }
func (c *chain) SetSeeds(seeds []float64) { c.seeds = seeds }
func (c *chain) StencilRadius() int       { return c.radius }
func (c *chain) Update(delta []float64) {
	for k := range delta {
		c.x[k] += delta[k]
	}
}
func (c *chain) Residual(r []types.ADReal) error {
	c.evals++
	for k := range r {
		r[k] = c.residual(c, k)
	}
	return nil
}

// at returns the unknown k with its seed, zero Dirichlet values outside the chain
func (c *chain) at(k int) types.ADReal {
	if k < 0 || k >= len(c.x) {
		return types.ADConst(0)
	}
	if c.seeds == nil {
		return types.ADConst(c.x[k])
	}
	return types.ADVar(c.x[k], c.seeds[k])
}

func newChain(n, radius int, residual func(c *chain, k int) types.ADReal) *chain {
	return &chain{
		x:        make([]float64, n),
		residual: residual,
		radius:   radius,
	}
}

func TestColoring(t *testing.T) {
	{ // Neighbors past the ends are reported as negative IDs
		c := newChain(5, 1, nil)
		assert.Equal(t, []int{-1, 1}, c.Neighbors(0))
		assert.Equal(t, []int{3, -1}, c.Neighbors(4))
		assert.Equal(t, []int{1, 3}, c.Neighbors(2))
	}
	{ // Balls grow by one hop per radius
		c := newChain(10, 1, nil)
		assert.Equal(t, []int{4}, Ball(c, 4, 0))
		assert.ElementsMatch(t, []int{3, 4, 5}, Ball(c, 4, 1))
		assert.ElementsMatch(t, []int{2, 3, 4, 5, 6}, Ball(c, 4, 2))
		assert.ElementsMatch(t, []int{0, 1, 2}, Ball(c, 0, 2))
	}
	for _, radius := range []int{1, 2} {
		var (
			c   = newChain(23, radius, nil)
			col = NewColoring(c, radius)
		)
		// A chain needs exactly 2r+1 colors
		assert.Equal(t, 2*radius+1, col.NumColors())
		var total int
		for color, members := range col.Colors {
			total += len(members)
			for i, a := range members {
				assert.Equal(t, color, col.Of[a])
				for _, b := range members[i+1:] {
					assert.Greater(t, int(math.Abs(float64(a-b))), 2*radius)
				}
			}
		}
		assert.Equal(t, 23, total)
	}
}

func TestNewton(t *testing.T) {
	nt := NewNewton(DefaultParams(), zap.NewNop())
	{ // Linear 1D Poisson converges in one step
		var (
			n = 20
			h = 1. / float64(n+1)
			f = -2.
		)
		c := newChain(n, 1, func(c *chain, k int) types.ADReal {
			lap := types.ADSub(types.ADScale(2, c.at(k)), types.ADAdd(c.at(k-1), c.at(k+1)))
			return types.ADSub(types.ADScale(1/(h*h), lap), types.ADConst(f))
		})
		res, err := nt.Solve("poisson", c)
		require.NoError(t, err)
		assert.True(t, res.Converged)
		assert.Equal(t, 1, res.Iterations)
		assert.Equal(t, 3, res.NumColors)
		assert.Equal(t, 3*n-2, res.JacobianNNZ)
		assert.Less(t, res.LinearResidual, 1.e-8)
		// -u'' = -2 with zero ends is x(x-1), exact at the nodes for the three point stencil
		for k := 0; k < n; k++ {
			x := float64(k+1) * h
			assert.InDelta(t, x*(x-1), c.x[k], 1.e-10)
		}
		// Residual, then one evaluation per color, then the check
		assert.Equal(t, 1+3+1, c.evals)
	}
	{ // Nonlinear diagonal term takes several iterations
		c := newChain(8, 1, func(c *chain, k int) types.ADReal {
			xk := c.at(k)
			return types.ADSub(types.ADAdd(types.ADMul(xk, xk), types.ADScale(0.1, c.at(k+1))),
				types.ADConst(4))
		})
		for k := range c.x {
			c.x[k] = 1
		}
		res, err := nt.Solve("quadratic", c)
		require.NoError(t, err)
		assert.Greater(t, res.Iterations, 1)
		assert.Len(t, res.ResidualNorm, res.Iterations+1)
		for k := range c.x {
			next := 0.
			if k+1 < len(c.x) {
				next = c.x[k+1]
			}
			assert.InDelta(t, 4, c.x[k]*c.x[k]+0.1*next, 1.e-8)
		}
	}
	{ // A residual that never depends on the unknowns has a singular Jacobian
		c := newChain(4, 1, func(c *chain, k int) types.ADReal {
			return types.ADConst(1)
		})
		_, err := nt.Solve("singular", c)
		assert.Error(t, err)
	}
	{ // Iteration limit
		nt := NewNewton(Params{MaxIterations: 1, AbsTol: 1.e-14}, nil)
		c := newChain(3, 1, func(c *chain, k int) types.ADReal {
			xk := c.at(k)
			return types.ADSub(types.ADMul(xk, types.ADMul(xk, xk)), types.ADConst(8))
		})
		for k := range c.x {
			c.x[k] = 1
		}
		res, err := nt.Solve("cubic", c)
		assert.Error(t, err)
		assert.False(t, res.Converged)
		assert.Equal(t, 1, res.Iterations)
	}
}
