// SPDX-License-Identifier: MIT
package viz

import (
	"fmt"
	"math"
	"strings"
)

// Shape selects the bar arrangement policy.
type Shape int

const (
	ShapeLinear Shape = iota
	ShapeCircular
)

// String returns the lower-case name of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeLinear:
		return "linear"
	case ShapeCircular:
		return "circular"
	default:
		return "unknown"
	}
}

// ParseShape converts a string name (case-insensitive) to a Shape.
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(name) {
	case "linear", "line", "strip":
		return ShapeLinear, nil
	case "circular", "circle", "ring":
		return ShapeCircular, nil
	default:
		return ShapeLinear, fmt.Errorf("unknown layout shape: '%s'", name)
	}
}

// LinearParams describes a horizontal strip of bars sharing one baseline
// inside a container centered on the origin.
type LinearParams struct {
	BarWidth        float64
	BarSpacing      float64
	PaddingTop      float64
	PaddingBottom   float64
	ContainerWidth  float64
	ContainerHeight float64
}

// CircularParams describes bars placed along a circular arc around the
// origin. TotalAngleDegrees must be in (0, 360].
type CircularParams struct {
	Radius            float64
	TotalAngleDegrees float64
}

// LayoutConfig is the full input to Generate. Exactly one of Linear or
// Circular is consulted, selected by Shape. MaxBarHeight feeds the linear
// base-height computation so a fully driven bar fills the available space.
type LayoutConfig struct {
	Shape        Shape
	Count        int
	MaxBarHeight float64
	Linear       LinearParams
	Circular     CircularParams
}

// BarPlacement is one generated bar slot. Positions are in container
// coordinates with the origin at the container center, x right, y up.
//
// The linear arrangement assumes the caller's rendering primitive anchors
// each bar at its bottom-center; Generate computes baselines under that
// contract rather than enforcing it.
type BarPlacement struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	RotationDegrees float64 `json:"rotation"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	InitialScaleY   float64 `json:"initialScaleY"`
}

// Generate computes the placement sequence for cfg. It is a pure function:
// the same config always yields the same sequence, and calling it repeatedly
// has no side effects. Invalid configuration returns an error and no
// placements; rendering against a nil slice is the caller's no-op path.
func Generate(cfg LayoutConfig) ([]BarPlacement, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch cfg.Shape {
	case ShapeLinear:
		return generateLinear(cfg), nil
	case ShapeCircular:
		return generateCircular(cfg), nil
	default:
		return nil, fmt.Errorf("unknown layout shape: %d", cfg.Shape)
	}
}

func (cfg LayoutConfig) validate() error {
	if cfg.Count <= 0 {
		return fmt.Errorf("layout element count must be positive, got %d", cfg.Count)
	}
	switch cfg.Shape {
	case ShapeLinear:
		if cfg.MaxBarHeight < 1 {
			return fmt.Errorf("max bar height must be >= 1, got %g", cfg.MaxBarHeight)
		}
		if cfg.Linear.BarWidth <= 0 {
			return fmt.Errorf("bar width must be positive, got %g", cfg.Linear.BarWidth)
		}
		if cfg.Linear.BarSpacing < 0 {
			return fmt.Errorf("bar spacing must be non-negative, got %g", cfg.Linear.BarSpacing)
		}
	case ShapeCircular:
		if cfg.Circular.Radius <= 0 {
			return fmt.Errorf("circle radius must be positive, got %g", cfg.Circular.Radius)
		}
		a := cfg.Circular.TotalAngleDegrees
		if a <= 0 || a > 360 {
			return fmt.Errorf("circle angle must be in (0, 360], got %g", a)
		}
	}
	return nil
}

// generateLinear lays the bars out as a strip centered on x=0, all sharing
// the container's bottom-padded baseline. Bars start collapsed
// (InitialScaleY = 0) and grow via the animator.
func generateLinear(cfg LayoutConfig) []BarPlacement {
	p := cfg.Linear
	n := cfg.Count

	// Floor of 1.0 guards the division when padding consumes the container.
	availableHeight := p.ContainerHeight - p.PaddingTop - p.PaddingBottom
	if availableHeight < 1.0 {
		availableHeight = 1.0
	}

	// Sized so height == MaxBarHeight fills the available vertical space.
	baseHeight := availableHeight / cfg.MaxBarHeight

	totalWidth := float64(n)*p.BarWidth + float64(n-1)*p.BarSpacing
	startX := -totalWidth/2 + p.BarWidth/2
	baseY := -p.ContainerHeight/2 + p.PaddingBottom

	placements := make([]BarPlacement, n)
	for i := range placements {
		placements[i] = BarPlacement{
			X:             startX + float64(i)*(p.BarWidth+p.BarSpacing),
			Y:             baseY,
			Width:         p.BarWidth,
			Height:        baseHeight,
			InitialScaleY: 0,
		}
	}
	return placements
}

// generateCircular places the bars along an arc, angles measured in degrees
// from the positive x-axis increasing counter-clockwise. Each bar is rotated
// so its up axis points radially outward.
//
// A full 360° arc leaves one implicit gap of one step between the last and
// first bars: the step is totalAngle/N, so bar N would coincide with bar 0.
// That keeps step spacing uniform for partial arcs; callers wanting a
// seamless ring should pass SeamlessAngle(n).
func generateCircular(cfg LayoutConfig) []BarPlacement {
	p := cfg.Circular
	n := cfg.Count

	angleStep := p.TotalAngleDegrees / float64(n)

	placements := make([]BarPlacement, n)
	for i := range placements {
		angle := angleStep * float64(i)
		rad := angle * math.Pi / 180
		placements[i] = BarPlacement{
			X:               p.Radius * math.Cos(rad),
			Y:               p.Radius * math.Sin(rad),
			RotationDegrees: angle - 90,
			InitialScaleY:   0,
		}
	}
	return placements
}

// SeamlessAngle returns the total angle that spreads n bars evenly around a
// full circle with no trailing gap: 360·(n-1)/n. Passing the result as
// TotalAngleDegrees closes the ring that a plain 360° arc leaves open.
func SeamlessAngle(n int) float64 {
	if n <= 1 {
		return 360
	}
	return 360 * float64(n-1) / float64(n)
}
