package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrictlyContainsPoint(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Width: 10, Height: 10}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 5, 5, true},
		{"on left border", 0, 5, false},
		{"on bottom border", 5, 10, false},
		{"outside", 11, 5, false},
		{"just inside corner", 0.001, 9.999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.StrictlyContainsPoint(tt.x, tt.y))
		})
	}
}

func TestClip(t *testing.T) {
	body := Rect{Left: 0, Top: 0, Width: 10, Height: 10}

	tests := []struct {
		name string
		head Rect
		want Rect
	}{
		{
			name: "already inside",
			head: Rect{Left: 2, Top: 2, Width: 3, Height: 3},
			want: Rect{Left: 2, Top: 2, Width: 3, Height: 3},
		},
		{
			name: "overhangs bottom right",
			head: Rect{Left: 8, Top: 7, Width: 4, Height: 6},
			want: Rect{Left: 8, Top: 7, Width: 2, Height: 3},
		},
		{
			name: "overhangs top left",
			head: Rect{Left: -2, Top: -3, Width: 5, Height: 5},
			want: Rect{Left: 0, Top: 0, Width: 3, Height: 2},
		},
		{
			name: "disjoint collapses to corner",
			head: Rect{Left: 20, Top: 20, Width: 5, Height: 5},
			want: Rect{Left: 10, Top: 10, Width: 0, Height: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.head.Clip(body)
			assert.Equal(t, tt.want, got)
			assert.True(t, body.Contains(got), "clipped box must lie inside the body")
			assert.LessOrEqual(t, got.Area(), tt.head.Area())
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Rect{Width: 0, Height: 0}.Valid())
	assert.False(t, Rect{Width: -1, Height: 2}.Valid())
	assert.False(t, Rect{Left: math.NaN(), Width: 1, Height: 1}.Valid())
}
