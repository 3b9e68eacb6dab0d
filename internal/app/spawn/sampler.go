/*
Package spawn places newly joined participants on the floor.

The floor is a convex quadrilateral split along the 0-2 diagonal into two triangles.
A triangle is chosen with probability proportional to its area and a point is drawn
uniformly inside it, so the resulting distribution is uniform over the whole floor.
*/
package spawn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrDegenerateRegion is returned when the corners enclose no area or repeat a point.
var ErrDegenerateRegion = errors.New("spawn region has zero area")

// ErrNotConvex is returned when the corners do not form a convex, non-self-intersecting quadrilateral.
var ErrNotConvex = errors.New("spawn region is not a convex quadrilateral")

// Point is a coordinate on the floor plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad holds the four ordered corners of the floor, in either winding order.
type Quad [4]Point

// Sampler draws uniformly distributed points from a fixed Quad.
// It holds no mutable state and is safe for concurrent use.
type Sampler struct {
	quad Quad

	// areas of triangles 0-1-2 and 0-2-3.
	first  float64
	second float64
}

// NewSampler validates the quadrilateral and precomputes its triangle areas.
func NewSampler(q Quad) (*Sampler, error) {
	if err := validate(q); err != nil {
		return nil, err
	}

	return &Sampler{
		quad:   q,
		first:  triangleArea(q[0], q[1], q[2]),
		second: triangleArea(q[0], q[2], q[3]),
	}, nil
}

// Area returns the total area of the floor.
func (s *Sampler) Area() float64 {
	return s.first + s.second
}

// SamplePoint returns an unrounded point drawn uniformly from the floor.
func (s *Sampler) SamplePoint(rng *rand.Rand) Point {
	q := s.quad

	if rng.Float64()*s.Area() < s.first {
		return pointInTriangle(rng, q[0], q[1], q[2])
	}

	return pointInTriangle(rng, q[0], q[2], q[3])
}

// Sample returns a point drawn uniformly from the floor, rounded to integer coordinates.
func (s *Sampler) Sample(rng *rand.Rand) (x, y int) {
	p := s.SamplePoint(rng)
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// Contains reports whether p lies inside the floor or on its edge.
func (s *Sampler) Contains(p Point) bool {
	q := s.quad
	return inTriangle(p, q[0], q[1], q[2]) || inTriangle(p, q[0], q[2], q[3])
}

// pointInTriangle folds two uniform draws into the unit triangle and maps them onto ABC.
func pointInTriangle(rng *rand.Rand, a, b, c Point) Point {
	r1 := rng.Float64()
	r2 := rng.Float64()

	if r1+r2 > 1 {
		r1 = 1 - r1
		r2 = 1 - r2
	}

	return Point{
		X: a.X + r1*(b.X-a.X) + r2*(c.X-a.X),
		Y: a.Y + r1*(b.Y-a.Y) + r2*(c.Y-a.Y),
	}
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func triangleArea(a, b, c Point) float64 {
	return math.Abs(cross(a, b, c)) / 2
}

// inTriangle uses a small tolerance so points on a shared edge count for both triangles.
func inTriangle(p, a, b, c Point) bool {
	const eps = 1e-9

	d1 := cross(a, b, p)
	d2 := cross(b, c, p)
	d3 := cross(c, a, p)

	hasNeg := d1 < -eps || d2 < -eps || d3 < -eps
	hasPos := d1 > eps || d2 > eps || d3 > eps

	return !(hasNeg && hasPos)
}

// validate requires every turn along the boundary to bend the same way.
// With four corners that rules out both self-intersection and collinear corners.
func validate(q Quad) error {
	for i, p := range q {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("corner %d is not a finite coordinate", i)
		}
	}

	var sign float64
	for i := range q {
		turn := cross(q[i], q[(i+1)%4], q[(i+2)%4])
		if turn == 0 {
			return ErrDegenerateRegion
		}

		if sign == 0 {
			sign = turn
			continue
		}

		if (turn > 0) != (sign > 0) {
			return ErrNotConvex
		}
	}

	return nil
}
