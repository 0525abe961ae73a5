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
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

// rawHeader returns a file header without any validation so that
// invalid geometries can be written.
func rawHeader(dim uint32, low, length []float64, mesh []int32, numItypes uint32) []byte {
	b := new(bytes.Buffer)
	for _, v := range []interface{}{dim, low, length, mesh, numItypes} {
		binary.Write(b, binary.LittleEndian, v)
	}
	return b.Bytes()
}

// rawBlock returns one species block.
func rawBlock(name string, vals []float64) []byte {
	b := new(bytes.Buffer)
	binary.Write(b, binary.LittleEndian, uint32(len(name)))
	b.WriteString(name)
	binary.Write(b, binary.LittleEndian, vals)
	return b.Bytes()
}

func fill(n int, v float64) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = v
	}
	return o
}

func ramp(n int, scale float64) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = scale * float64(i+1)
	}
	return o
}

// testData2D is a 2×3 mesh with two species.
func testData2D() (*Geometry, *Fields) {
	g := &Geometry{
		Dim:     2,
		BoxLow:  []float64{-1, -2},
		BoxLen:  []float64{4, 6},
		MeshDim: []int{2, 3},
	}
	f := NewFields()
	f.Set("A", ramp(24, 1))
	f.Set("Bb", ramp(24, -0.5))
	return g, f
}

// testData3D is a 2×1×2 mesh with two species.
func testData3D() (*Geometry, *Fields) {
	g := &Geometry{
		Dim:     3,
		BoxLow:  []float64{0, 0, 0},
		BoxLen:  []float64{2, 1, 4},
		MeshDim: []int{2, 1, 2},
	}
	f := NewFields()
	f.Set("A", fill(36, 0))
	f.Set("B", fill(36, 1))
	return g, f
}

func encode(t *testing.T, g *Geometry, f *Fields) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	if err := Encode(b, g, f); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, test := range []struct {
		name string
		data func() (*Geometry, *Fields)
	}{
		{name: "2D", data: testData2D},
		{name: "3D", data: testData3D},
	} {
		t.Run(test.name, func(t *testing.T) {
			g, f := test.data()
			b := encode(t, g, f)
			wantLen := 4 + g.Dim*8 + g.Dim*8 + g.Dim*4 + 4
			for _, n := range f.Names() {
				wantLen += 4 + len(n) + g.NumCells()*g.TensorDim()*8
			}
			if len(b) != wantLen {
				t.Errorf("encoded length %d != %d", len(b), wantLen)
			}
			g2, f2, err := Decode(bytes.NewReader(b), DecodeOptions{Size: int64(len(b)), Strict: true})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(g, g2) {
				t.Errorf("geometry: %v", pretty.Diff(g, g2))
			}
			if !reflect.DeepEqual(f.List(), f2.List()) {
				t.Errorf("fields: %v", pretty.Diff(f.List(), f2.List()))
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	g, f := testData2D()
	b := encode(t, g, f)
	for _, sized := range []bool{false, true} {
		for n := 0; n < len(b); n++ {
			opts := DecodeOptions{}
			if sized {
				opts.Size = int64(n)
			}
			_, _, err := Decode(bytes.NewReader(b[:n]), opts)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("sized=%v, %d bytes: want ParseError, have %v", sized, n, err)
			}
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("sized=%v, %d bytes: want unexpected EOF, have %v", sized, n, err)
			}
			if pe.Offset > int64(n) {
				t.Errorf("sized=%v, %d bytes: offset %d past end of data", sized, n, pe.Offset)
			}
		}
	}
}

func TestDecodeInvalidHeader(t *testing.T) {
	for _, test := range []struct {
		name  string
		data  []byte
		field string
	}{
		{
			name:  "dim 1",
			data:  rawHeader(1, []float64{0}, []float64{1}, []int32{1}, 0),
			field: "sim_dim",
		},
		{
			name:  "dim 4",
			data:  rawHeader(4, fill(4, 0), fill(4, 1), []int32{1, 1, 1, 1}, 0),
			field: "sim_dim",
		},
		{
			name:  "zero mesh",
			data:  rawHeader(2, []float64{0, 0}, []float64{1, 1}, []int32{2, 0}, 0),
			field: "mesh_dim[1]",
		},
		{
			name:  "negative mesh",
			data:  rawHeader(3, fill(3, 0), fill(3, 1), []int32{-2, 2, 2}, 0),
			field: "mesh_dim[0]",
		},
		{
			name:  "zero box",
			data:  rawHeader(2, []float64{0, 0}, []float64{1, 0}, []int32{2, 2}, 0),
			field: "box_len[1]",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(test.data), DecodeOptions{})
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("want ParseError, have %v", err)
			}
			if pe.Field != test.field {
				t.Errorf("field %q != %q", pe.Field, test.field)
			}
		})
	}
}

func TestDecodeDuplicateSpecies(t *testing.T) {
	var b []byte
	b = append(b, rawHeader(2, []float64{0, 0}, []float64{1, 1}, []int32{1, 1}, 3)...)
	b = append(b, rawBlock("A", []float64{1, 1, 1, 1})...)
	b = append(b, rawBlock("B", []float64{5, 5, 5, 5})...)
	b = append(b, rawBlock("A", []float64{2, 2, 2, 2})...)
	_, f, err := Decode(bytes.NewReader(b), DecodeOptions{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"A", "B"}; !reflect.DeepEqual(f.Names(), want) {
		t.Errorf("names %v != %v", f.Names(), want)
	}
	if a, _ := f.Get("A"); !reflect.DeepEqual(a, []float64{2, 2, 2, 2}) {
		t.Errorf("A = %v; the last block should win", a)
	}
}

func TestDecodeTrailingData(t *testing.T) {
	g, f := testData3D()
	b := append(encode(t, g, f), 0, 1, 2)
	if _, _, err := Decode(bytes.NewReader(b), DecodeOptions{}); err != nil {
		t.Errorf("lenient: %v", err)
	}
	_, _, err := Decode(bytes.NewReader(b), DecodeOptions{Strict: true})
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != "trailer" {
		t.Errorf("strict: want trailer ParseError, have %v", err)
	}
}

func TestDecodeNameLength(t *testing.T) {
	hdr := rawHeader(2, []float64{0, 0}, []float64{1, 1}, []int32{1, 1}, 1)
	t.Run("too long", func(t *testing.T) {
		b := append([]byte(nil), hdr...)
		b = append(b, 0xff, 0xff, 0xff, 0xff)
		_, _, err := Decode(bytes.NewReader(b), DecodeOptions{})
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("want ParseError, have %v", err)
		}
	})
	t.Run("past end", func(t *testing.T) {
		b := append([]byte(nil), hdr...)
		b = append(b, 100, 0, 0, 0, 'A')
		_, _, err := Decode(bytes.NewReader(b), DecodeOptions{Size: int64(len(b))})
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("want unexpected EOF, have %v", err)
		}
	})
}

func TestDecodeHugeMesh(t *testing.T) {
	// 9 × 2^57 values fit in an int but their byte length does not.
	b := rawHeader(3, fill(3, 0), fill(3, 1), []int32{1 << 30, 1 << 27, 1}, 1)
	b = append(b, rawBlock("A", fill(9, 1))...)
	path := filepath.Join(t.TempDir(), InputFile)
	if err := ioutil.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name string
		read func() error
	}{
		{name: "file", read: func() error {
			_, _, err := ReadFile(path, DecodeOptions{})
			return err
		}},
		{name: "stream", read: func() error {
			_, _, err := Decode(bytes.NewReader(b), DecodeOptions{})
			return err
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := test.read()
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("want ParseError, have %v", err)
			}
			if !strings.HasPrefix(pe.Field, "mesh_dim") {
				t.Errorf("field %q", pe.Field)
			}
		})
	}
}

func TestDecodeLargeBlockUnsized(t *testing.T) {
	// The header promises 2048×2048 cells (128 MiB per block) but the
	// stream ends after two values.
	b := rawHeader(2, []float64{0, 0}, []float64{1, 1}, []int32{2048, 2048}, 1)
	b = append(b, rawBlock("A", []float64{1, 2})...)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, _, err := Decode(bytes.NewReader(b), DecodeOptions{})
	runtime.ReadMemStats(&after)

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want unexpected EOF, have %v", err)
	}
	if alloc := after.TotalAlloc - before.TotalAlloc; alloc > 16<<20 {
		t.Errorf("allocated %d bytes for a %d byte stream", alloc, len(b))
	}
}

func TestDecodeChunked(t *testing.T) {
	g := &Geometry{
		Dim:     2,
		BoxLow:  []float64{0, 0},
		BoxLen:  []float64{64, 300},
		MeshDim: []int{64, 300},
	}
	f := NewFields()
	f.Set("A", ramp(g.NumCells()*g.TensorDim(), 0.5))
	b := encode(t, g, f)
	_, f2, err := Decode(bytes.NewReader(b), DecodeOptions{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f.List(), f2.List()) {
		t.Error("values read in chunks differ from the values written")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	g, f := testData2D()
	if err := WriteFile(InputPath(dir), g, f); err != nil {
		t.Fatal(err)
	}
	g2, f2, err := ReadFile(InputPath(dir), DecodeOptions{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g, g2) {
		t.Errorf("geometry: %v", pretty.Diff(g, g2))
	}
	if !reflect.DeepEqual(f.List(), f2.List()) {
		t.Errorf("fields: %v", pretty.Diff(f.List(), f2.List()))
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), InputFile), DecodeOptions{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, have %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestEncodeWrongLength(t *testing.T) {
	g, _ := testData2D()
	f := NewFields()
	f.Set("short", []float64{1, 2, 3})
	if err := Encode(new(bytes.Buffer), g, f); err == nil {
		t.Error("want an error for a short tensor block")
	}
}
