package generator

import (
	"github.com/sw965/wren/matrix"
)

// Ball enumerates every element reachable from the identity with at most
// radius actions, in breadth-first order. Distance maps each element's key to
// its word length, which is the minimal number of actions needed to reduce
// the element back to the identity. Products that overflow int64 are left
// out, which only happens for radii far beyond anything enumerable.
type Ball struct {
	Elements []matrix.Matrix
	Distance map[matrix.Key]int
}

func NewBall(s Set, radius int) Ball {
	id := matrix.Identity(s.Dim())
	ball := Ball{
		Elements: []matrix.Matrix{id},
		Distance: map[matrix.Key]int{id.Key(): 0},
	}

	frontier := []matrix.Matrix{id}
	for d := 1; d <= radius; d++ {
		next := make([]matrix.Matrix, 0, len(frontier)*s.Len())
		for _, m := range frontier {
			for i := 0; i < s.Len(); i++ {
				y, err := s.Apply(m, i)
				if err != nil {
					continue
				}
				k := y.Key()
				if _, ok := ball.Distance[k]; ok {
					continue
				}
				ball.Distance[k] = d
				ball.Elements = append(ball.Elements, y)
				next = append(next, y)
			}
		}
		frontier = next
	}
	return ball
}

// Sphere returns the elements at exactly distance d.
func (b Ball) Sphere(d int) []matrix.Matrix {
	ys := make([]matrix.Matrix, 0)
	for _, m := range b.Elements {
		if b.Distance[m.Key()] == d {
			ys = append(ys, m)
		}
	}
	return ys
}
