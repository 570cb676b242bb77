package layout

import "fmt"

// Position is a logo placement on the creative canvas, expressed as
// percentages of the canvas width and height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultPosition sits near the top-left corner of the canvas.
var DefaultPosition = Position{X: 6, Y: 4}

const (
	// Interactive placement keeps the logo fully inside the frame.
	maxDragPercent = 90

	lowerBand = 33
	upperBand = 66
)

// Clamp returns the position constrained to the draggable area.
func Clamp(p Position) Position {
	return Position{
		X: clampAxis(p.X),
		Y: clampAxis(p.Y),
	}
}

func clampAxis(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxDragPercent {
		return maxDragPercent
	}
	return v
}

// Zone classifies a position into one of nine canvas zones using bands
// at 33% and 66%. Values exactly on a band edge fall in the CENTER band.
func Zone(p Position) string {
	var vertical, horizontal string

	switch {
	case p.Y < lowerBand:
		vertical = "TOP"
	case p.Y > upperBand:
		vertical = "BOTTOM"
	default:
		vertical = "CENTER"
	}

	switch {
	case p.X < lowerBand:
		horizontal = "LEFT"
	case p.X > upperBand:
		horizontal = "RIGHT"
	default:
		horizontal = "CENTER"
	}

	return vertical + "-" + horizontal
}

// Guidance renders the placement instruction sent along with a
// composite-visual request. The generative backend does the actual
// compositing; this only describes where the logo belongs.
func Guidance(p *Position) string {
	if p == nil {
		return fmt.Sprintf("Place the logo in the TOP-LEFT corner of the image, at approximately %.0f%% from the left and %.0f%% from the top.",
			DefaultPosition.X, DefaultPosition.Y)
	}
	return fmt.Sprintf("Place the logo in the %s area of the image, at approximately %.0f%% from the left and %.0f%% from the top.",
		Zone(*p), p.X, p.Y)
}
