/*
Copyright © 2022 the PhaseField authors.
This file is part of PhaseField.

PhaseField is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PhaseField is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PhaseField.  If not, see <http://www.gnu.org/licenses/>.
*/

package phasefield

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/sparse"
	"github.com/ctessum/cdf"
)

// WriteNetCDF writes the painted field sequences in fields, plus the
// coordinate grids and the timestep axis, to the NetCDF file w. Every
// field must have shape [len(times), ny, nx] matching the coordinate
// grids.
func WriteNetCDF(w *os.File, fields map[string]*sparse.DenseArray, coords *GridCoords, times []float64) error {
	ny, nx := coords.X.Shape[0], coords.X.Shape[1]
	for name, field := range fields {
		if len(field.Shape) != 3 || field.Shape[0] != len(times) ||
			field.Shape[1] != ny || field.Shape[2] != nx {
			return fmt.Errorf("phasefield: field %s: dims are %v but must be [%d %d %d]",
				name, field.Shape, len(times), ny, nx)
		}
	}

	h := cdf.NewHeader(
		[]string{"t", "y", "x"},
		[]int{len(times), ny, nx})
	h.AddAttribute("", "comment", "PhaseField painted cell-property fields")
	h.AddAttribute("", "nx", []int32{int32(nx)})
	h.AddAttribute("", "ny", []int32{int32(ny)})
	h.AddAttribute("", "data_version", Version)

	h.AddVariable("time", []string{"t"}, []float32{0})
	h.AddAttribute("time", "description", "simulation time of each stored snapshot")
	h.AddVariable("x", []string{"y", "x"}, []float32{0})
	h.AddAttribute("x", "description", "grid of x positions")
	h.AddVariable("y", []string{"y", "x"}, []float32{0})
	h.AddAttribute("y", "description", "grid of y positions")

	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		h.AddVariable(name, []string{"t", "y", "x"}, []float32{0})
		h.AddAttribute(name, "description", "per-pixel value of the owning cell's '"+name+"'")
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	timeArr := sparse.ZerosDense(len(times))
	copy(timeArr.Elements, times)
	for name, data := range map[string]*sparse.DenseArray{
		"time": timeArr, "x": coords.X, "y": coords.Y} {
		if err := writeNCF(f, name, data); err != nil {
			return fmt.Errorf("phasefield: writing variable %s to netcdf file: %v", name, err)
		}
	}
	for _, name := range names {
		if err := writeNCF(f, name, fields[name]); err != nil {
			return fmt.Errorf("phasefield: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadNetCDF reads the named variable back out of a NetCDF file written
// by WriteNetCDF.
func ReadNetCDF(r *os.File, name string) (*sparse.DenseArray, error) {
	ff, err := cdf.Open(r)
	if err != nil {
		return nil, err
	}
	dims := ff.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("phasefield: read netcdf: variable %v not in file", name)
	}
	rr := ff.Reader(name, nil, nil)
	buf := rr.Zero(-1)
	if _, err := rr.Read(buf); err != nil {
		return nil, fmt.Errorf("phasefield: read netcdf variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	for i, val := range buf.([]float32) {
		data.Elements[i] = float64(val)
	}
	return data, nil
}

func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	if _, err := w.Write(data32); err != nil {
		return err
	}
	return nil
}
