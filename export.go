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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Exporter turns raw species tensors into stress fields on the cell
// centers of a mesh and writes them out.
type Exporter struct {
	Geometry *Geometry

	// ApplyBoxOrigin adds Geometry.BoxLow to the cell centers. By default
	// positions are measured from the lower box corner.
	ApplyBoxOrigin bool

	// Workers is the number of species written concurrently by
	// ExportText. Values below 2 export sequentially.
	Workers int

	// Log receives progress messages. If nil, the logrus standard
	// logger is used.
	Log logrus.FieldLogger

	posMu     sync.Mutex
	pos       *mat.Dense
	posOrigin bool
}

// NewExporter returns a sequential exporter for g.
func NewExporter(g *Geometry) *Exporter {
	return &Exporter{Geometry: g, Workers: 1}
}

func (e *Exporter) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Positions returns a NumCells×Dim matrix holding the center of every
// cell in linear index order. The result is cached until ApplyBoxOrigin
// changes and must not be modified.
func (e *Exporter) Positions() *mat.Dense {
	e.posMu.Lock()
	defer e.posMu.Unlock()
	if e.pos != nil && e.posOrigin == e.ApplyBoxOrigin {
		return e.pos
	}
	g := e.Geometry
	pos := mat.NewDense(g.NumCells(), g.Dim, nil)
	cellLen := g.CellLen()
	for it := Cells(g); it.Next(); {
		g.cellCenter(it.Coord(), cellLen, e.ApplyBoxOrigin, pos.RawRowView(it.Index()))
	}
	e.pos, e.posOrigin = pos, e.ApplyBoxOrigin
	return e.pos
}

// Stress reshapes raw into a NumCells×Dim² matrix and divides it by the
// cell volume. raw is not modified.
func (e *Exporter) Stress(name string, raw []float64) (*mat.Dense, error) {
	g := e.Geometry
	td := g.TensorDim()
	if len(raw) == 0 || len(raw)%td != 0 {
		return nil, &ParseError{Field: fmt.Sprintf("species %q", name), Offset: -1,
			Err: fmt.Errorf("tensor length %d is not a positive multiple of %d", len(raw), td)}
	}
	if rows := len(raw) / td; rows != g.NumCells() {
		return nil, &ParseError{Field: fmt.Sprintf("species %q", name), Offset: -1,
			Err: fmt.Errorf("tensor block covers %d cells but the mesh has %d", rows, g.NumCells())}
	}
	vol := g.CellVolume()
	s := mat.NewDense(g.NumCells(), td, append([]float64(nil), raw...))
	s.Apply(func(_, _ int, v float64) float64 { return v / vol }, s)
	return s, nil
}

// Rows returns the output table for one species: each row holds the cell
// center followed by the normalized tensor components.
func (e *Exporter) Rows(name string, raw []float64) (*mat.Dense, error) {
	s, err := e.Stress(name, raw)
	if err != nil {
		return nil, err
	}
	var rows mat.Dense
	rows.Augment(e.Positions(), s)
	return &rows, nil
}

// Header returns the column labels of an output table for a simulation
// with dimensionality dim.
func Header(dim int) []string {
	axes := []string{"x", "y", "z"}[:dim]
	h := make([]string, 0, dim+dim*dim)
	for _, a := range axes {
		h = append(h, strings.ToUpper(a))
	}
	for _, a := range axes {
		for _, b := range axes {
			h = append(h, "s"+a+b)
		}
	}
	h[0] = "#" + h[0]
	return h
}

// WriteText writes rows as a tab-separated header line followed by one
// space-separated line per cell.
func (e *Exporter) WriteText(w io.Writer, rows mat.Matrix) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header(e.Geometry.Dim), "\t") + "\n"); err != nil {
		return err
	}
	r, c := rows.Dims()
	buf := make([]byte, 0, 26*c)
	for i := 0; i < r; i++ {
		buf = buf[:0]
		for j := 0; j < c; j++ {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = appendFloat(buf, rows.At(i, j))
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// appendFloat formats v the way C's "%.18e" does.
func appendFloat(buf []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(buf, "nan"...)
	case math.IsInf(v, 1):
		return append(buf, "inf"...)
	case math.IsInf(v, -1):
		return append(buf, "-inf"...)
	}
	return strconv.AppendFloat(buf, v, 'e', 18, 64)
}

// TextPath returns the output location of the named field in dir.
func TextPath(dir, name string) string { return filepath.Join(dir, name+".txt") }

// ExportText writes one text table per field into dir and returns the
// paths written, in field order. Export stops at the first failure, but
// tables already written are left in place.
func (e *Exporter) ExportText(dir string, fields *Fields) ([]string, error) {
	names := fields.Names()
	paths := make([]string, len(names))
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(names) {
		workers = len(names)
	}
	e.Positions()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	jobs := make(chan int)
	failed := make(chan struct{})
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			close(failed)
		})
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				raw, _ := fields.Get(names[i])
				path := TextPath(dir, names[i])
				if err := e.writeTextFile(path, names[i], raw); err != nil {
					fail(err)
					continue
				}
				paths[i] = path
			}
		}()
	}
dispatch:
	for i := range names {
		select {
		case jobs <- i:
		case <-failed:
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return paths, nil
}

func (e *Exporter) writeTextFile(path, name string, raw []float64) error {
	rows, err := e.Rows(name, raw)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	if err := e.WriteText(f, rows); err != nil {
		f.Close()
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: path, Op: "close", Err: err}
	}
	r, _ := rows.Dims()
	e.logger().WithFields(logrus.Fields{
		"species": name,
		"path":    path,
		"cells":   r,
	}).Info("wrote stress field")
	return nil
}
