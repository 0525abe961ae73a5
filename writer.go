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
)

// Encode writes g and fields to w in the local_stress.bin layout, with
// the species in fields' insertion order.
func Encode(w io.Writer, g *Geometry, fields *Fields) error {
	if err := g.Validate(); err != nil {
		return err
	}
	mesh := make([]int32, g.Dim)
	for i, m := range g.MeshDim {
		mesh[i] = int32(m)
	}
	blockLen := g.NumCells() * g.TensorDim()

	le := binary.LittleEndian
	for _, v := range []interface{}{uint32(g.Dim), g.BoxLow, g.BoxLen, mesh, uint32(fields.Len())} {
		if err := binary.Write(w, le, v); err != nil {
			return fmt.Errorf("localstress: writing header: %w", err)
		}
	}
	for _, f := range fields.List() {
		if len(f.Raw) != blockLen {
			return fmt.Errorf("localstress: species %q has %d tensor values; the mesh needs %d",
				f.Name, len(f.Raw), blockLen)
		}
		if err := binary.Write(w, le, uint32(len(f.Name))); err != nil {
			return fmt.Errorf("localstress: writing species %q: %w", f.Name, err)
		}
		if _, err := io.WriteString(w, f.Name); err != nil {
			return fmt.Errorf("localstress: writing species %q: %w", f.Name, err)
		}
		if err := binary.Write(w, le, f.Raw); err != nil {
			return fmt.Errorf("localstress: writing species %q: %w", f.Name, err)
		}
	}
	return nil
}

// WriteFile encodes g and fields into a new file at path.
func WriteFile(path string, g *Geometry, fields *Fields) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, g, fields); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: path, Op: "close", Err: err}
	}
	return nil
}
