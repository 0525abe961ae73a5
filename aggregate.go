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

	"gonum.org/v1/gonum/floats"
)

// Total is the name the summed field is stored under.
const Total = "total"

// Aggregate sums the raw tensors of every species in fields element-wise
// and stores the result under Total. If a species is itself named Total it
// is included in the sum and then overwritten; replaced reports whether
// that happened. With no species the total is all zeros.
func Aggregate(g *Geometry, fields *Fields) (replaced bool, err error) {
	n := g.NumCells() * g.TensorDim()
	acc := make([]float64, n)
	for _, f := range fields.List() {
		if len(f.Raw) != n {
			return false, &ParseError{Field: fmt.Sprintf("species %q", f.Name), Offset: -1,
				Err: fmt.Errorf("tensor length %d does not match %d cells × %d components",
					len(f.Raw), g.NumCells(), g.TensorDim())}
		}
		floats.Add(acc, f.Raw)
	}
	return fields.Set(Total, acc), nil
}
