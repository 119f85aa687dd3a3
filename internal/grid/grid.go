// Package grid provides dense 2D grids and 3D spectral cubes of float64
// samples, with optional per-sample validity masks and the robust statistics
// used by the fitting drivers.
//
// Grids are stored row-major. The first coordinate indexes rows (NY), the
// second indexes columns (NX). A masked sample is excluded from statistics
// and from fit residuals; its stored value is irrelevant.
package grid

import (
	"fmt"
	"math"
)

// Grid is a dense row-major 2D array with an optional validity mask.
// A nil Mask means every sample is valid. Mask[i] == true excludes sample i.
type Grid struct {
	NY, NX int
	Data   []float64
	Mask   []bool
}

// New returns a zero-filled NY x NX grid with no mask.
func New(ny, nx int) *Grid {
	return &Grid{NY: ny, NX: nx, Data: make([]float64, ny*nx)}
}

// NewFilled returns an NY x NX grid with every sample set to v.
func NewFilled(ny, nx int, v float64) *Grid {
	g := New(ny, nx)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

// FromSlice wraps an existing row-major slice. The slice is not copied.
func FromSlice(ny, nx int, data []float64) (*Grid, error) {
	if len(data) != ny*nx {
		return nil, fmt.Errorf("grid: data length %d does not match %dx%d", len(data), ny, nx)
	}
	return &Grid{NY: ny, NX: nx, Data: data}, nil
}

// Idx returns the flat index of (iy, ix).
func (g *Grid) Idx(iy, ix int) int { return iy*g.NX + ix }

// At returns the sample at (iy, ix).
func (g *Grid) At(iy, ix int) float64 { return g.Data[g.Idx(iy, ix)] }

// Set stores v at (iy, ix).
func (g *Grid) Set(iy, ix int, v float64) { g.Data[g.Idx(iy, ix)] = v }

// Masked reports whether the sample at (iy, ix) is excluded.
func (g *Grid) Masked(iy, ix int) bool {
	return g.Mask != nil && g.Mask[g.Idx(iy, ix)]
}

// SetMasked marks the sample at (iy, ix) as excluded, allocating the mask on
// first use.
func (g *Grid) SetMasked(iy, ix int) {
	if g.Mask == nil {
		g.Mask = make([]bool, len(g.Data))
	}
	g.Mask[g.Idx(iy, ix)] = true
}

// NumValid returns the number of unmasked samples.
func (g *Grid) NumValid() int {
	if g.Mask == nil {
		return len(g.Data)
	}
	n := 0
	for _, m := range g.Mask {
		if !m {
			n++
		}
	}
	return n
}

// Valid returns the unmasked samples in row-major order.
func (g *Grid) Valid() []float64 {
	if g.Mask == nil {
		out := make([]float64, len(g.Data))
		copy(out, g.Data)
		return out
	}
	out := make([]float64, 0, len(g.Data))
	for i, v := range g.Data {
		if !g.Mask[i] {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy of the grid, including any mask.
func (g *Grid) Clone() *Grid {
	out := &Grid{NY: g.NY, NX: g.NX, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	if g.Mask != nil {
		out.Mask = make([]bool, len(g.Mask))
		copy(out.Mask, g.Mask)
	}
	return out
}

// Cube is a dense stack of spectra: NChan spectral channels over an NY x NX
// spatial footprint. Data is laid out channel-major, so channel c of pixel
// (iy, ix) lives at c*NY*NX + iy*NX + ix.
type Cube struct {
	NChan, NY, NX int
	Data          []float64
}

// NewCube returns a zero-filled cube.
func NewCube(nchan, ny, nx int) *Cube {
	return &Cube{NChan: nchan, NY: ny, NX: nx, Data: make([]float64, nchan*ny*nx)}
}

// At returns the sample at spectral channel c of pixel (iy, ix).
func (c *Cube) At(chn, iy, ix int) float64 {
	return c.Data[chn*c.NY*c.NX+iy*c.NX+ix]
}

// Set stores v at spectral channel c of pixel (iy, ix).
func (c *Cube) Set(chn, iy, ix int, v float64) {
	c.Data[chn*c.NY*c.NX+iy*c.NX+ix] = v
}

// Spectrum copies the spectrum of pixel (iy, ix) into dst, which must have
// length NChan. It returns dst for convenience.
func (c *Cube) Spectrum(iy, ix int, dst []float64) []float64 {
	stride := c.NY * c.NX
	base := iy*c.NX + ix
	for chn := 0; chn < c.NChan; chn++ {
		dst[chn] = c.Data[chn*stride+base]
	}
	return dst
}

// IsNaN reports whether v is NaN. Thin alias so callers of the result maps do
// not need to import math just for the "no fit here" test.
func IsNaN(v float64) bool { return math.IsNaN(v) }
