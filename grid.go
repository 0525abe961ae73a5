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

// CellCoord returns the integer mesh coordinate of the cell with
// linear index i. The x index varies fastest:
//	x = i mod m0
//	y = (i / m0) mod m1
//	z = i / (m0*m1)
func (g *Geometry) CellCoord(i int) []int {
	c := make([]int, g.Dim)
	g.cellCoord(i, c)
	return c
}

func (g *Geometry) cellCoord(i int, c []int) {
	for d, m := range g.MeshDim {
		c[d] = i % m
		i /= m
	}
}

// CellIndex is the inverse of CellCoord. The coordinate must be
// within the mesh.
func (g *Geometry) CellIndex(c []int) int {
	i := c[g.Dim-1]
	for d := g.Dim - 2; d >= 0; d-- {
		i = i*g.MeshDim[d] + c[d]
	}
	return i
}

// CellCenter returns the center of the cell at mesh coordinate c,
// measured from the box origin. If withOrigin is true, BoxLow is added
// so that the position is absolute.
func (g *Geometry) CellCenter(c []int, withOrigin bool) []float64 {
	p := make([]float64, g.Dim)
	g.cellCenter(c, g.CellLen(), withOrigin, p)
	return p
}

func (g *Geometry) cellCenter(c []int, cellLen []float64, withOrigin bool, p []float64) {
	for d := range p {
		p[d] = (float64(c[d]) + 0.5) * cellLen[d]
		if withOrigin {
			p[d] += g.BoxLow[d]
		}
	}
}

// CellIter steps through the mesh cells in linear index order, which is
// the order the tensor blocks are stored in. The zero value is not usable;
// create one with Cells.
type CellIter struct {
	g     *Geometry
	n     int
	i     int
	coord []int
}

// Cells returns an iterator over all cells of g. Call Next before
// reading the first cell.
func Cells(g *Geometry) *CellIter {
	return &CellIter{
		g:     g,
		n:     g.NumCells(),
		i:     -1,
		coord: make([]int, g.Dim),
	}
}

// Next advances to the next cell and reports whether there was one.
func (it *CellIter) Next() bool {
	if it.i+1 >= it.n {
		it.i = it.n
		return false
	}
	it.i++
	it.g.cellCoord(it.i, it.coord)
	return true
}

// Index returns the linear index of the current cell.
func (it *CellIter) Index() int { return it.i }

// Coord returns the mesh coordinate of the current cell. The slice is
// reused by the following call to Next.
func (it *CellIter) Coord() []int { return it.coord }

// Reset rewinds the iterator to before the first cell.
func (it *CellIter) Reset() { it.i = -1 }
