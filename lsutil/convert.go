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

package lsutil

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/localstress"
)

// load reads and aggregates the local stress file in dir.
func load(log logrus.FieldLogger, dir string, strict bool) (*localstress.Geometry, *localstress.Fields, error) {
	in := localstress.InputPath(dir)
	log.WithField("path", in).Info("reading local stress file")
	g, fields, err := localstress.ReadFile(in, localstress.DecodeOptions{Strict: strict})
	if err != nil {
		var nf *localstress.NotFoundError
		if errors.As(err, &nf) {
			return nil, nil, fmt.Errorf("%w: please specify the directory where %s exists",
				err, localstress.InputFile)
		}
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"sim_dim": g.Dim,
		"mesh":    g.MeshDim,
		"cells":   g.NumCells(),
		"species": fields.Names(),
	}).Info("decoded local stress file")

	replaced, err := localstress.Aggregate(g, fields)
	if err != nil {
		return nil, nil, err
	}
	if replaced {
		log.WithField("species", localstress.Total).Warn("a species in the input is named " +
			"like the aggregate field; it has been overwritten by the sum of all species")
	}
	return g, fields, nil
}

// Convert reads the local stress file in dir, adds the total field, and
// writes the requested output formats into dir. It returns the paths of
// the files written.
//
// formats must contain only FormatText and FormatNetCDF. If applyOrigin is
// true the lower box corner is added to cell positions. If strict is true,
// data after the last species block is an error. workers sets the number
// of text tables written concurrently.
func Convert(log logrus.FieldLogger, dir string, formats []string, applyOrigin, strict bool, workers int) ([]string, error) {
	startTime := time.Now()
	formats, err := checkFormats(formats)
	if err != nil {
		return nil, err
	}
	g, fields, err := load(log, dir, strict)
	if err != nil {
		return nil, err
	}

	e := localstress.NewExporter(g)
	e.ApplyBoxOrigin = applyOrigin
	e.Workers = workers
	e.Log = log

	var written []string
	for _, f := range formats {
		switch f {
		case FormatText:
			paths, err := e.ExportText(dir, fields)
			if err != nil {
				return written, err
			}
			written = append(written, paths...)
		case FormatNetCDF:
			path := localstress.NetCDFPath(dir)
			if err := e.ExportNetCDF(path, fields); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	log.WithFields(logrus.Fields{
		"files":   len(written),
		"elapsed": time.Since(startTime).String(),
	}).Info("conversion complete")
	return written, nil
}

// Info writes a summary of the local stress file in dir to w in the
// given format, either "text" or "toml".
func Info(w io.Writer, dir, format string, strict bool) error {
	format, err := checkSummaryFormat(format)
	if err != nil {
		return err
	}
	log := logrus.New()
	log.Out = io.Discard
	g, fields, err := load(log, dir, strict)
	if err != nil {
		return err
	}
	s, err := localstress.Summarize(g, fields)
	if err != nil {
		return err
	}
	if format == "toml" {
		return s.WriteTOML(w)
	}
	return s.WriteText(w)
}

// Synth writes a synthetic local stress file into dir and returns its path.
// The value of tensor component k of cell c for the species at position s
// is (s+1) * (c*dim² + k + 1).
func Synth(log logrus.FieldLogger, dir string, mesh []int, box, low []float64, species []string) (string, error) {
	g := &localstress.Geometry{
		Dim:     len(mesh),
		BoxLow:  low,
		BoxLen:  box,
		MeshDim: mesh,
	}
	if err := g.Validate(); err != nil {
		return "", err
	}
	n := g.NumCells() * g.TensorDim()
	fields := localstress.NewFields()
	for s, name := range species {
		raw := make([]float64, n)
		for i := range raw {
			raw[i] = float64(s+1) * float64(i+1)
		}
		fields.Set(name, raw)
	}
	path := localstress.InputPath(dir)
	if err := localstress.WriteFile(path, g, fields); err != nil {
		return "", err
	}
	log.WithFields(logrus.Fields{
		"path":    path,
		"mesh":    mesh,
		"species": fields.Names(),
	}).Info("wrote synthetic local stress file")
	return path, nil
}
