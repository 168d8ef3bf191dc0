package solver

// Graph is the element adjacency the Jacobian stencil is built on, negative neighbors are ignored
type Graph interface {
	Size() int
	Neighbors(k int) []int
}

// Ball returns every element within radius face hops of k, k first
func Ball(g Graph, k, radius int) (ball []int) {
	var (
		seen  = map[int]bool{k: true}
		front = []int{k}
	)
	ball = append(ball, k)
	for hop := 0; hop < radius; hop++ {
		var next []int
		for _, e := range front {
			for _, nbr := range g.Neighbors(e) {
				if nbr < 0 || seen[nbr] {
					continue
				}
				seen[nbr] = true
				next = append(next, nbr)
			}
		}
		ball = append(ball, next...)
		front = next
	}
	return
}

/*
Coloring groups elements so that no two elements of a color influence the same residual row.
With a residual stencil of radius r two elements conflict when they are at most 2r hops apart,
so elements of one color have disjoint radius r balls and one seeded residual evaluation per
color recovers every Jacobian entry.
*/
type Coloring struct {
	Radius int
	Colors [][]int // Elements of each color
	Of     []int   // Color of each element
}

// NewColoring colors greedily in element order, each element takes the lowest free color
func NewColoring(g Graph, radius int) (c *Coloring) {
	n := g.Size()
	c = &Coloring{
		Radius: radius,
		Of:     make([]int, n),
	}
	for k := range c.Of {
		c.Of[k] = -1
	}
	for k := 0; k < n; k++ {
		used := make(map[int]bool)
		for _, e := range Ball(g, k, 2*radius) {
			if c.Of[e] >= 0 {
				used[c.Of[e]] = true
			}
		}
		color := 0
		for used[color] {
			color++
		}
		c.Of[k] = color
		if color == len(c.Colors) {
			c.Colors = append(c.Colors, nil)
		}
		c.Colors[color] = append(c.Colors[color], k)
	}
	return
}

func (c *Coloring) NumColors() int { return len(c.Colors) }
