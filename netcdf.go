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
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// NetCDFFile is the name of the NetCDF output written next to the input.
const NetCDFFile = "local_stress.nc"

// NetCDFVar returns the NetCDF variable name holding the stress of the
// named field.
func NetCDFVar(name string) string { return "stress_" + name }

// ExportNetCDF writes the cell centers and the normalized stress of every
// field into a single NetCDF classic file at path.
func (e *Exporter) ExportNetCDF(path string, fields *Fields) error {
	g := e.Geometry
	names := fields.Names()

	stress := make([]*mat.Dense, len(names))
	for i, n := range names {
		raw, _ := fields.Get(n)
		s, err := e.Stress(n, raw)
		if err != nil {
			return err
		}
		stress[i] = s
	}
	components := strings.Join(Header(g.Dim)[g.Dim:], " ")

	h := cdf.NewHeader([]string{"cell", "dim", "component"},
		[]int{g.NumCells(), g.Dim, g.TensorDim()})
	h.AddAttribute("", "sim_dim", []int32{int32(g.Dim)})
	h.AddAttribute("", "box_low", g.BoxLow)
	h.AddAttribute("", "box_len", g.BoxLen)
	mesh := make([]int32, g.Dim)
	for i, m := range g.MeshDim {
		mesh[i] = int32(m)
	}
	h.AddAttribute("", "mesh_dim", mesh)

	h.AddVariable("position", []string{"cell", "dim"}, []float64{0})
	h.AddAttribute("position", "description", "grid cell center")
	for _, n := range names {
		v := NetCDFVar(n)
		h.AddVariable(v, []string{"cell", "component"}, []float64{0})
		h.AddAttribute(v, "description", fmt.Sprintf("%s stress tensor per unit cell volume", n))
		h.AddAttribute(v, "species", n)
		h.AddAttribute(v, "components", components)
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("localstress: creating netcdf file: %v", err)
	}

	ff, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return &IOError{Path: path, Op: "write", Err: err}
	}

	if err := writeCDFVar(f, "position", e.Positions()); err != nil {
		ff.Close()
		return &IOError{Path: path, Op: "write", Err: err}
	}
	for i, n := range names {
		if err := writeCDFVar(f, NetCDFVar(n), stress[i]); err != nil {
			ff.Close()
			return &IOError{Path: path, Op: "write", Err: err}
		}
	}
	if err := ff.Close(); err != nil {
		return &IOError{Path: path, Op: "close", Err: err}
	}
	e.logger().WithFields(logrus.Fields{
		"path":   path,
		"fields": len(names),
	}).Info("wrote netcdf file")
	return nil
}

// writeCDFVar writes m, row by row, into variable v.
func writeCDFVar(f *cdf.File, v string, m *mat.Dense) error {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	w := f.Writer(v, nil, nil)
	n, err := w.Write(data)
	// The writer reports io.EOF once the last element of the variable
	// has been written.
	if err == io.EOF && n == len(data) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("writing variable %s: %v", v, err)
	}
	return nil
}

// NetCDFPath returns the NetCDF output location in dir.
func NetCDFPath(dir string) string { return filepath.Join(dir, NetCDFFile) }
