// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Params parametrizes a sample function as A*f(F*x + P).
type Params struct {
	Amplitude float64
	Frequency float64
	Phase     float64
}

// DefaultParams leaves the base function unchanged.
func DefaultParams() Params {
	return Params{Amplitude: 1, Frequency: 1}
}

// Domain is the sampling interval [XMin, XMax].
type Domain struct {
	XMin float64
	XMax float64
}

// Width returns XMax - XMin.
func (d Domain) Width() float64 {
	return d.XMax - d.XMin
}

// Contains reports whether x lies inside the closed interval.
func (d Domain) Contains(x float64) bool {
	return x >= d.XMin && x <= d.XMax
}

// Clamp limits x to the domain.
func (d Domain) Clamp(x float64) float64 {
	if x < d.XMin {
		return d.XMin
	}
	if x > d.XMax {
		return d.XMax
	}
	return x
}

// RGB is a gradient color stop or sample color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// String formats the color as an rgb() triple.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex formats the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ChartConfig defines the settings a chart is built from.
type ChartConfig struct {
	Function     string
	Domain       Domain
	Params       Params
	Steps        int
	Subdivisions int
	Flags        uint32
}

// Preset is a named, persisted chart configuration.
type Preset struct {
	Name      string
	Config    ChartConfig
	UpdatedAt time.Time
}

// ExportRecord describes one SVG written to disk.
type ExportRecord struct {
	ID        int64
	Path      string
	Function  string
	Domain    Domain
	CreatedAt time.Time
}
