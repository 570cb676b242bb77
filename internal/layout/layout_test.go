package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZone(t *testing.T) {
	tests := []struct {
		x, y float64
		want string
	}{
		{10, 10, "TOP-LEFT"},
		{50, 50, "CENTER-CENTER"},
		{90, 10, "TOP-RIGHT"},
		{10, 90, "BOTTOM-LEFT"},
		{90, 90, "BOTTOM-RIGHT"},
		{50, 10, "TOP-CENTER"},
		{10, 50, "CENTER-LEFT"},
		{90, 50, "CENTER-RIGHT"},
		{50, 90, "BOTTOM-CENTER"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Zone(Position{X: tt.x, Y: tt.y}), "x=%v y=%v", tt.x, tt.y)
	}
}

func TestZoneBandEdges(t *testing.T) {
	// Band edges resolve to the CENTER band, strict comparisons.
	assert.Equal(t, "CENTER-CENTER", Zone(Position{X: 33, Y: 33}))
	assert.Equal(t, "CENTER-CENTER", Zone(Position{X: 66, Y: 66}))
	assert.Equal(t, "TOP-CENTER", Zone(Position{X: 33, Y: 32.9}))
	assert.Equal(t, "BOTTOM-RIGHT", Zone(Position{X: 66.1, Y: 66.1}))
}

func TestDefaultPositionIsTopLeft(t *testing.T) {
	assert.Equal(t, "TOP-LEFT", Zone(DefaultPosition))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, Position{X: 0, Y: 90}, Clamp(Position{X: -5, Y: 104}))
	assert.Equal(t, Position{X: 42, Y: 7}, Clamp(Position{X: 42, Y: 7}))
	assert.Equal(t, Position{X: 90, Y: 0}, Clamp(Position{X: 100, Y: -1}))
}

func TestGuidance(t *testing.T) {
	assert.Contains(t, Guidance(nil), "TOP-LEFT corner")
	assert.Contains(t, Guidance(&Position{X: 50, Y: 50}), "CENTER-CENTER")
}
