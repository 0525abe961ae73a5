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
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxNameLen is the longest species name the decoder will allocate for.
const maxNameLen = 1 << 20

// chunkLen is the number of values read at a time from a tensor block
// when the stream length is unknown.
const chunkLen = 1 << 16

// DecodeOptions control how strictly a local stress file is decoded.
type DecodeOptions struct {
	// Strict makes bytes remaining after the last species block an error.
	// By default they are ignored.
	Strict bool

	// Size is the total length of the stream in bytes. When it is known
	// (>0) every block length is checked against the remaining bytes before
	// memory is allocated for it.
	Size int64
}

// InputPath returns the location of the binary input file in dir.
func InputPath(dir string) string { return filepath.Join(dir, InputFile) }

// ReadFile decodes the local stress file at path. The file is closed
// before ReadFile returns.
func ReadFile(path string, opts DecodeOptions) (*Geometry, *Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, nil, &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()
	if opts.Size <= 0 {
		if fi, err := f.Stat(); err == nil {
			opts.Size = fi.Size()
		}
	}
	return Decode(bufio.NewReader(f), opts)
}

// Decode reads a geometry header followed by the species tensor blocks
// from r. Every field is read in file order; a short read or an invalid
// value results in a *ParseError.
func Decode(r io.Reader, opts DecodeOptions) (*Geometry, *Fields, error) {
	c := &cursor{r: r, size: opts.Size}

	var simDim uint32
	if err := c.read("sim_dim", &simDim); err != nil {
		return nil, nil, err
	}
	if simDim != 2 && simDim != 3 {
		return nil, nil, &ParseError{Field: "sim_dim", Offset: 0,
			Err: fmt.Errorf("dimensionality %d is not 2 or 3", simDim)}
	}
	d := int(simDim)
	g := &Geometry{
		Dim:    d,
		BoxLow: make([]float64, d),
		BoxLen: make([]float64, d),
	}
	if err := c.read("box_low", g.BoxLow); err != nil {
		return nil, nil, err
	}
	if err := c.read("box_len", g.BoxLen); err != nil {
		return nil, nil, err
	}
	mesh := make([]int32, d)
	if err := c.read("mesh_dim", mesh); err != nil {
		return nil, nil, err
	}
	g.MeshDim = make([]int, d)
	for i, m := range mesh {
		g.MeshDim[i] = int(m)
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}

	var numItypes uint32
	if err := c.read("num_itypes", &numItypes); err != nil {
		return nil, nil, err
	}

	blockLen := g.NumCells() * g.TensorDim()
	fields := NewFields()
	for i := 0; i < int(numItypes); i++ {
		var nameLen uint32
		if err := c.read(fmt.Sprintf("species %d name_len", i), &nameLen); err != nil {
			return nil, nil, err
		}
		nameField := fmt.Sprintf("species %d name", i)
		if nameLen > maxNameLen {
			return nil, nil, &ParseError{Field: nameField, Offset: c.offset,
				Err: fmt.Errorf("name length %d exceeds %d bytes", nameLen, maxNameLen)}
		}
		if err := c.need(nameField, int64(nameLen), 1); err != nil {
			return nil, nil, err
		}
		name := make([]byte, nameLen)
		if err := c.read(nameField, name); err != nil {
			return nil, nil, err
		}

		blockField := fmt.Sprintf("species %q tensor block", name)
		if err := c.need(blockField, int64(blockLen), 8); err != nil {
			return nil, nil, err
		}
		raw, err := c.readFloats(blockField, blockLen)
		if err != nil {
			return nil, nil, err
		}
		fields.Set(string(name), raw)
	}

	if opts.Strict {
		if err := c.atEOF(); err != nil {
			return nil, nil, err
		}
	}
	return g, fields, nil
}

// cursor reads little-endian values from a stream and keeps track of
// the byte offset of the next read.
type cursor struct {
	r      io.Reader
	offset int64
	size   int64 // total stream length, or <= 0 if unknown
}

// read fills data, which must be a pointer to a fixed-size value or a
// slice of fixed-size values.
func (c *cursor) read(field string, data interface{}) error {
	n := binary.Size(data)
	if err := binary.Read(c.r, binary.LittleEndian, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return &ParseError{Field: field, Offset: c.offset, Err: err}
	}
	c.offset += int64(n)
	return nil
}

// readFloats reads n float64 values. If the stream length is unknown the
// values are read in chunks so that a corrupt header cannot make the
// decoder allocate more than the stream holds.
func (c *cursor) readFloats(field string, n int) ([]float64, error) {
	if c.size > 0 || n <= chunkLen {
		o := make([]float64, n)
		if err := c.read(field, o); err != nil {
			return nil, err
		}
		return o, nil
	}
	o := make([]float64, 0, chunkLen)
	buf := make([]float64, chunkLen)
	for len(o) < n {
		if rem := n - len(o); rem < len(buf) {
			buf = buf[:rem]
		}
		if err := c.read(field, buf); err != nil {
			return nil, err
		}
		o = append(o, buf...)
	}
	return o, nil
}

// need checks that count values of width bytes each are available when
// the stream size is known.
func (c *cursor) need(field string, count, width int64) error {
	if c.size <= 0 {
		return nil
	}
	if remaining := c.size - c.offset; count > remaining/width {
		return &ParseError{Field: field, Offset: c.offset,
			Err: fmt.Errorf("need %d values of %d bytes but only %d bytes remain: %w",
				count, width, remaining, io.ErrUnexpectedEOF)}
	}
	return nil
}

// atEOF returns an error if any bytes remain in the stream.
func (c *cursor) atEOF() error {
	var b [1]byte
	_, err := io.ReadFull(c.r, b[:])
	switch err {
	case io.EOF:
		return nil
	case nil:
		return &ParseError{Field: "trailer", Offset: c.offset,
			Err: fmt.Errorf("unexpected data after the last species block")}
	default:
		return &ParseError{Field: "trailer", Offset: c.offset, Err: err}
	}
}
