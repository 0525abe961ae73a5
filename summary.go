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

package localstress

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Summary describes the contents of a local stress file.
type Summary struct {
	Dim        int       `toml:"sim_dim"`
	BoxLow     []float64 `toml:"box_low"`
	BoxLen     []float64 `toml:"box_len"`
	MeshDim    []int     `toml:"mesh_dim"`
	NumCells   int       `toml:"number_of_cells"`
	CellVolume float64   `toml:"cell_volume"`

	Species []SpeciesSummary `toml:"species"`
}

// SpeciesSummary holds the box-averaged stress of one species.
type SpeciesSummary struct {
	Name string `toml:"name"`

	// Pressure is the sum of the raw tensors over all cells divided by the
	// box volume, in stored component order.
	Pressure []float64 `toml:"pressure"`

	// MeanNormal is the trace of Pressure divided by the dimensionality.
	MeanNormal float64 `toml:"mean_normal_stress"`
}

// Summarize computes the box-averaged pressure tensor of every field.
func Summarize(g *Geometry, fields *Fields) (*Summary, error) {
	s := &Summary{
		Dim:        g.Dim,
		BoxLow:     g.BoxLow,
		BoxLen:     g.BoxLen,
		MeshDim:    g.MeshDim,
		NumCells:   g.NumCells(),
		CellVolume: g.CellVolume(),
	}
	td := g.TensorDim()
	boxVol := g.BoxVolume()
	col := make([]float64, g.NumCells())
	for _, f := range fields.List() {
		if len(f.Raw) != g.NumCells()*td {
			return nil, &ParseError{Field: fmt.Sprintf("species %q", f.Name), Offset: -1,
				Err: fmt.Errorf("tensor length %d does not match %d cells × %d components",
					len(f.Raw), g.NumCells(), td)}
		}
		m := mat.NewDense(g.NumCells(), td, f.Raw)
		ss := SpeciesSummary{Name: f.Name, Pressure: make([]float64, td)}
		for k := range ss.Pressure {
			ss.Pressure[k] = floats.Sum(mat.Col(col, k, m)) / boxVol
		}
		for d := 0; d < g.Dim; d++ {
			ss.MeanNormal += ss.Pressure[d*g.Dim+d]
		}
		ss.MeanNormal /= float64(g.Dim)
		s.Species = append(s.Species, ss)
	}
	return s, nil
}

// WriteTOML encodes s as TOML.
func (s *Summary) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// WriteText writes s in a human-readable layout.
func (s *Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "dimensionality:  %d\n", s.Dim)
	fmt.Fprintf(&b, "box low:         %v\n", s.BoxLow)
	fmt.Fprintf(&b, "box length:      %v\n", s.BoxLen)
	fmt.Fprintf(&b, "mesh:            %v (%d cells)\n", s.MeshDim, s.NumCells)
	fmt.Fprintf(&b, "cell volume:     %g\n", s.CellVolume)
	labels := Header(s.Dim)[s.Dim:]
	for _, sp := range s.Species {
		fmt.Fprintf(&b, "\nspecies %s\n", sp.Name)
		for i, p := range sp.Pressure {
			fmt.Fprintf(&b, "  %s = %g\n", labels[i], p)
		}
		fmt.Fprintf(&b, "  mean normal stress = %g\n", sp.MeanNormal)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
