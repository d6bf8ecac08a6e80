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

	"github.com/ctessum/sparse"
)

// Paint replaces each rank label in the rank field with the owning cell's
// scalar value, producing one field per timestep. scalar must have shape
// [timesteps, len(ranks)], with the second axis following the order of
// ranks. Pixels holding Unoccupied, or a rank label not present in ranks,
// keep the default value of zero; that is the intended fill policy for
// unknown ranks, not an error. Paint is a pure function of its inputs.
func Paint(rf *RankField, ranks []int, scalar *sparse.DenseArray) (*sparse.DenseArray, error) {
	if err := checkPaintShapes(rf, ranks, scalar); err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(rf.Data.Shape...)
	index := make(map[int]int, len(ranks))
	for j, rank := range ranks {
		index[rank] = j
	}
	nr := len(ranks)
	npix := rf.Data.Shape[1] * rf.Data.Shape[2]
	for t := 0; t < rf.Data.Shape[0]; t++ {
		off := t * npix
		for p := 0; p < npix; p++ {
			if j, ok := index[int(rf.Data.Elements[off+p])]; ok {
				out.Elements[off+p] = scalar.Elements[t*nr+j]
			}
		}
	}
	return out, nil
}

// PaintEach is like Paint except that it passes the painted fields to fn
// one timestep at a time instead of materializing the whole sequence,
// for use when the full [timesteps, ny, nx] array would not fit in
// memory. The field passed to fn is reused between calls.
func PaintEach(rf *RankField, ranks []int, scalar *sparse.DenseArray, fn func(t int, field *sparse.DenseArray) error) error {
	if err := checkPaintShapes(rf, ranks, scalar); err != nil {
		return err
	}
	index := make(map[int]int, len(ranks))
	for j, rank := range ranks {
		index[rank] = j
	}
	nr := len(ranks)
	ny, nx := rf.Data.Shape[1], rf.Data.Shape[2]
	field := sparse.ZerosDense(ny, nx)
	for t := 0; t < rf.Data.Shape[0]; t++ {
		off := t * ny * nx
		for p := 0; p < ny*nx; p++ {
			field.Elements[p] = 0
			if j, ok := index[int(rf.Data.Elements[off+p])]; ok {
				field.Elements[p] = scalar.Elements[t*nr+j]
			}
		}
		if err := fn(t, field); err != nil {
			return err
		}
	}
	return nil
}

// PaintProperty resolves property p against the cell series and paints
// each of its components, returning one [timesteps, ny, nx] field
// sequence per component.
func PaintProperty(rf *RankField, cs *CellSeries, p Property) ([]*sparse.DenseArray, error) {
	components, err := cs.Resolve(p, len(rf.Times))
	if err != nil {
		return nil, err
	}
	fields := make([]*sparse.DenseArray, len(components))
	for i, scalar := range components {
		if fields[i], err = Paint(rf, cs.Ranks, scalar); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func checkPaintShapes(rf *RankField, ranks []int, scalar *sparse.DenseArray) error {
	if len(rf.Data.Shape) != 3 {
		return fmt.Errorf("phasefield: rank field must have 3 dimensions but has %d", len(rf.Data.Shape))
	}
	if len(rf.Times) != rf.Data.Shape[0] {
		return fmt.Errorf("phasefield: time axis has %d steps but the rank field has %d snapshots",
			len(rf.Times), rf.Data.Shape[0])
	}
	if len(scalar.Shape) != 2 {
		return fmt.Errorf("phasefield: per-rank scalar array must have 2 dimensions but has %d", len(scalar.Shape))
	}
	if scalar.Shape[0] != rf.Data.Shape[0] {
		return fmt.Errorf("phasefield: per-rank scalar array has %d timesteps but the rank field has %d",
			scalar.Shape[0], rf.Data.Shape[0])
	}
	if scalar.Shape[1] != len(ranks) {
		return fmt.Errorf("phasefield: per-rank scalar array has %d ranks but %d are known",
			scalar.Shape[1], len(ranks))
	}
	return nil
}
