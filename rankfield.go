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
	"path/filepath"

	"github.com/ctessum/sparse"
	"github.com/ctessum/geom"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/floats"
)

// Unoccupied is the rank-field label for grid pixels that are not covered
// by any cell.
const Unoccupied = -1

// GridCoords holds the spatial coordinate grids for the simulation domain.
// The grids are fixed for a whole analysis session.
type GridCoords struct {
	X, Y *sparse.DenseArray
}

// Extent returns the spatial bounding box of the coordinate grids.
func (gc *GridCoords) Extent() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: floats.Min(gc.X.Elements), Y: floats.Min(gc.Y.Elements)},
		Max: geom.Point{X: floats.Max(gc.X.Elements), Y: floats.Max(gc.Y.Elements)},
	}
}

// RankField holds the rasterized cell-ownership grids for a simulation.
// Data has shape [timesteps, ny, nx]; each element is the rank of the cell
// occupying that pixel at that time, or Unoccupied. Times is the timestep
// axis, aligned by index with the first dimension of Data.
type RankField struct {
	Data   *sparse.DenseArray
	Times  []float64
	Coords *GridCoords
}

// Snapshot returns a copy of the rank grid at timestep index t.
func (rf *RankField) Snapshot(t int) (*sparse.DenseArray, error) {
	if t < 0 || t >= rf.Data.Shape[0] {
		return nil, fmt.Errorf("phasefield: rank field snapshot %d out of range [0,%d)", t, rf.Data.Shape[0])
	}
	ny, nx := rf.Data.Shape[1], rf.Data.Shape[2]
	o := sparse.ZerosDense(ny, nx)
	copy(o.Elements, rf.Data.Elements[t*ny*nx:(t+1)*ny*nx])
	return o, nil
}

// readNpy reads the NumPy array file located at filename into a
// DenseArray of the same shape.
func readNpy(filename string) (*sparse.DenseArray, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("phasefield: opening npy file: %v", err)
	}
	defer f.Close()
	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("phasefield: reading npy file %s: %v", filename, err)
	}
	var elements []float64
	if err := r.Read(&elements); err != nil {
		return nil, fmt.Errorf("phasefield: reading npy file %s: %v", filename, err)
	}
	shape := r.Header.Descr.Shape
	if len(shape) == 0 { // npy scalars are stored with an empty shape.
		shape = []int{1}
	}
	data := sparse.ZerosDense(shape...)
	if len(data.Elements) != len(elements) {
		return nil, fmt.Errorf("phasefield: npy file %s: dims are %v but array length is %d",
			filename, shape, len(elements))
	}
	copy(data.Elements, elements)
	return data, nil
}

// LoadGridCoords loads the coordinate grids stored in the phasefield
// subdirectory of the simulation output directory dir.
func LoadGridCoords(dir string) (*GridCoords, error) {
	x, err := readNpy(filepath.Join(dir, "phasefield", "grid_x.npy"))
	if err != nil {
		return nil, err
	}
	y, err := readNpy(filepath.Join(dir, "phasefield", "grid_y.npy"))
	if err != nil {
		return nil, err
	}
	if len(x.Shape) != 2 {
		return nil, fmt.Errorf("phasefield: coordinate grid must have 2 dimensions but has %d", len(x.Shape))
	}
	if x.Shape[0] != y.Shape[0] || x.Shape[1] != y.Shape[1] {
		return nil, fmt.Errorf("phasefield: coordinate grid dims are %v and %v but must match",
			x.Shape, y.Shape)
	}
	return &GridCoords{X: x, Y: y}, nil
}

// LoadRankField loads the rank-field snapshots stored in the phasefield
// subdirectory of the simulation output directory dir. The snapshots are
// stored as one npy grid file per timestep, named by the time value, with
// the timestep axis in timesteps.npy.
func LoadRankField(dir string) (*RankField, error) {
	coords, err := LoadGridCoords(dir)
	if err != nil {
		return nil, err
	}
	t, err := readNpy(filepath.Join(dir, "phasefield", "timesteps.npy"))
	if err != nil {
		return nil, err
	}
	times := t.Elements
	ny, nx := coords.X.Shape[0], coords.X.Shape[1]
	data := sparse.ZerosDense(len(times), ny, nx)
	for i, time := range times {
		g, err := readNpy(filepath.Join(dir, "phasefield",
			fmt.Sprintf("phi_field%06.3f.npy", time)))
		if err != nil {
			return nil, err
		}
		if len(g.Shape) != 2 || g.Shape[0] != ny || g.Shape[1] != nx {
			return nil, fmt.Errorf("phasefield: rank grid at time %g: dims are %v but grid is [%d %d]",
				time, g.Shape, ny, nx)
		}
		copy(data.Elements[i*ny*nx:(i+1)*ny*nx], g.Elements)
	}
	return &RankField{Data: data, Times: times, Coords: coords}, nil
}
