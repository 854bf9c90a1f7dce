package region

import "testing"

func TestFromFrame(t *testing.T) {
	r := FromFrame(1000, 500, 0.2)

	if r.X1 != 200 || r.X2 != 800 {
		t.Errorf("X bounds: got (%v, %v), want (200, 800)", r.X1, r.X2)
	}
	if r.Y1 != 100 || r.Y2 != 400 {
		t.Errorf("Y bounds: got (%v, %v), want (100, 400)", r.Y1, r.Y2)
	}
	if r.Width() != 600 || r.Height() != 300 {
		t.Errorf("size: got %vx%v, want 600x300", r.Width(), r.Height())
	}
}

func TestContains(t *testing.T) {
	r := Region{X1: 100, Y1: 100, X2: 400, Y2: 300}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 250, 200, true},
		{"just inside left edge", 100.001, 200, true},
		{"outside left", 50, 200, false},
		{"outside right", 450, 200, false},
		{"outside above", 250, 50, false},
		{"outside below", 250, 350, false},
		// Boundary points are excluded: the test is a strict interior check.
		{"on left edge", 100, 200, false},
		{"on right edge", 400, 200, false},
		{"on top edge", 250, 100, false},
		{"on bottom edge", 250, 300, false},
		{"on corner", 100, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	if (Region{X1: 0, Y1: 0, X2: 10, Y2: 10}).Empty() {
		t.Error("non-degenerate region reported empty")
	}
	if !(Region{X1: 10, Y1: 0, X2: 10, Y2: 10}).Empty() {
		t.Error("zero-width region not reported empty")
	}
	if !(Region{}).Empty() {
		t.Error("zero region not reported empty")
	}
}
