// Package region implements the counting zone containment test.
package region

// Region is an axis-aligned rectangle in frame pixel space.
// It is computed once per stream connection and immutable afterwards.
type Region struct {
	X1, Y1 float64
	X2, Y2 float64
}

// FromFrame computes the counting region for a frame of the given
// dimensions. The margin fraction is trimmed from every edge, so a margin
// of 0.2 leaves the central 60% of the frame in both dimensions.
func FromFrame(width, height int, margin float64) Region {
	w := float64(width)
	h := float64(height)
	return Region{
		X1: w * margin,
		Y1: h * margin,
		X2: w * (1 - margin),
		Y2: h * (1 - margin),
	}
}

// Contains reports whether the point lies strictly inside the region.
// Points exactly on the boundary are not contained.
func (r Region) Contains(x, y float64) bool {
	return r.X1 < x && x < r.X2 && r.Y1 < y && y < r.Y2
}

// Width returns the horizontal extent of the region.
func (r Region) Width() float64 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the region.
func (r Region) Height() float64 {
	return r.Y2 - r.Y1
}

// Empty reports whether the region has no interior.
func (r Region) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}
