package common

import (
	"math"
	"testing"
)

func TestFinite(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   bool
	}{
		{"empty", nil, true},
		{"plain", []float64{0, -1, 3.5}, true},
		{"nan", []float64{1, math.NaN()}, false},
		{"pos_inf", []float64{math.Inf(1)}, false},
		{"neg_inf", []float64{2, math.Inf(-1)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Finite(c.values...); got != c.want {
				t.Fatalf("Finite(%v) = %v, want %v", c.values, got, c.want)
			}
		})
	}
}

func TestClampAndLerp(t *testing.T) {
	if got := Clamp(5, 0, 2); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	if got := Clamp(-1, 0, 2); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Lerp(2, 4, 0.5); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}
