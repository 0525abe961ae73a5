/*
Copyright © 2026 the localstress authors.
This file is part of localstress.

localstress is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

localstress is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with localstress.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package localstress decodes the binary local stress distributions written
// by the local stress (virial) calculator and exports them as gridded
// stress-tensor fields.
//
// A local_stress.bin file holds the simulation box geometry followed by one
// raw tensor block per particle species. Each block stores a
// dim×dim tensor for every mesh cell, with the cell index varying slowest.
// The package sums the species into a "total" field, normalizes every field
// by the cell volume and writes one text table per field.
package localstress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Version gives the version number.
const Version = "1.0.0"

// InputFile is the name of the binary file the calculator writes into its
// output directory.
const InputFile = "local_stress.bin"

// maxBlockLen is the largest number of float64 values a tensor block may
// hold so that its length in bytes still fits in an int.
const maxBlockLen = int(^uint(0)>>1) / 8

// Geometry describes the simulation box and the mesh the stress was
// accumulated on. It is parsed once from the file header and is not
// modified afterwards.
type Geometry struct {
	// Dim is the dimensionality of the simulation, either 2 or 3.
	Dim int

	// BoxLow is the lower corner of the simulation box.
	BoxLow []float64

	// BoxLen holds the box extents along each axis.
	BoxLen []float64

	// MeshDim is the number of grid cells along each axis.
	MeshDim []int
}

// Validate checks that the geometry is one the grid and export logic
// can handle.
func (g *Geometry) Validate() error {
	if g.Dim != 2 && g.Dim != 3 {
		return &ParseError{Field: "sim_dim", Offset: -1,
			Err: fmt.Errorf("dimensionality %d is not 2 or 3", g.Dim)}
	}
	if len(g.BoxLow) != g.Dim || len(g.BoxLen) != g.Dim || len(g.MeshDim) != g.Dim {
		return &ParseError{Field: "header", Offset: -1,
			Err: fmt.Errorf("box_low, box_len and mesh_dim lengths (%d, %d, %d) must equal sim_dim %d",
				len(g.BoxLow), len(g.BoxLen), len(g.MeshDim), g.Dim)}
	}
	for i, l := range g.BoxLen {
		if !(l > 0) || math.IsInf(l, 0) {
			return &ParseError{Field: fmt.Sprintf("box_len[%d]", i), Offset: -1,
				Err: fmt.Errorf("box length %g must be positive and finite", l)}
		}
	}
	n := g.TensorDim()
	for i, m := range g.MeshDim {
		if m <= 0 {
			return &ParseError{Field: fmt.Sprintf("mesh_dim[%d]", i), Offset: -1,
				Err: fmt.Errorf("mesh dimension %d must be positive", m)}
		}
		if n > maxBlockLen/m {
			return &ParseError{Field: fmt.Sprintf("mesh_dim[%d]", i), Offset: -1,
				Err: fmt.Errorf("mesh %v has too many cells", g.MeshDim)}
		}
		n *= m
	}
	return nil
}

// NumCells returns the number of mesh cells.
func (g *Geometry) NumCells() int {
	n := 1
	for _, m := range g.MeshDim {
		n *= m
	}
	return n
}

// TensorDim returns the number of components in each cell's tensor.
func (g *Geometry) TensorDim() int { return g.Dim * g.Dim }

// CellLen returns the edge length of a mesh cell along each axis.
func (g *Geometry) CellLen() []float64 {
	l := make([]float64, g.Dim)
	for i := range l {
		l[i] = g.BoxLen[i] / float64(g.MeshDim[i])
	}
	return l
}

// CellVolume returns the volume (area in 2D) of a single mesh cell.
func (g *Geometry) CellVolume() float64 { return floats.Prod(g.CellLen()) }

// BoxVolume returns the volume (area in 2D) of the simulation box.
func (g *Geometry) BoxVolume() float64 { return floats.Prod(g.BoxLen) }

// Field is the raw accumulated tensor of one species. Raw holds
// NumCells*Dim² values; the cell index varies slowest.
type Field struct {
	Name string
	Raw  []float64
}

// Fields is a mapping from species name to raw tensor data that remembers
// the order names were first added in. Setting an existing name replaces
// its data and keeps its position.
type Fields struct {
	names []string
	data  map[string][]float64
}

// NewFields returns an empty mapping.
func NewFields() *Fields {
	return &Fields{data: make(map[string][]float64)}
}

// Set stores raw under name and reports whether an earlier entry
// was replaced.
func (f *Fields) Set(name string, raw []float64) (replaced bool) {
	if _, ok := f.data[name]; ok {
		replaced = true
	} else {
		f.names = append(f.names, name)
	}
	f.data[name] = raw
	return replaced
}

// Get returns the data stored under name.
func (f *Fields) Get(name string) ([]float64, bool) {
	raw, ok := f.data[name]
	return raw, ok
}

// Names returns the species names in insertion order.
func (f *Fields) Names() []string {
	o := make([]string, len(f.names))
	copy(o, f.names)
	return o
}

// Len returns the number of species.
func (f *Fields) Len() int { return len(f.names) }

// List returns the fields in insertion order.
func (f *Fields) List() []Field {
	o := make([]Field, len(f.names))
	for i, n := range f.names {
		o[i] = Field{Name: n, Raw: f.data[n]}
	}
	return o
}
