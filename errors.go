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

import "fmt"

// NotFoundError is returned when the input file does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("localstress: input file %s does not exist", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError is returned when the input is truncated, malformed or
// describes an invalid geometry. Offset is the byte offset of the field
// that failed, or -1 if the failure is not tied to a position in the stream.
type ParseError struct {
	Field  string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("localstress: parsing %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("localstress: parsing %s at byte %d: %v", e.Field, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError is returned when an input or output file cannot be opened
// or written.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("localstress: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
