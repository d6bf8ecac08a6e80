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
	"math"
	"reflect"
	"testing"
)

// testCellSeries builds an in-memory cell series. Any required column not
// given is filled with zeros.
func testCellSeries(cells map[int]map[string][]float64) *CellSeries {
	cs := &CellSeries{index: make(map[int]int)}
	for rank := range cells {
		cs.Ranks = append(cs.Ranks, rank)
	}
	// Ranks ascending, as LoadCellSeries guarantees.
	for i := 0; i < len(cs.Ranks); i++ {
		for j := i + 1; j < len(cs.Ranks); j++ {
			if cs.Ranks[j] < cs.Ranks[i] {
				cs.Ranks[i], cs.Ranks[j] = cs.Ranks[j], cs.Ranks[i]
			}
		}
	}
	for i, rank := range cs.Ranks {
		cols := cells[rank]
		var n int
		for _, col := range cols {
			n = len(col)
		}
		ct := &CellTable{Rank: rank, columns: make(map[string][]float64)}
		for _, name := range SeriesColumns {
			if col, ok := cols[name]; ok {
				ct.columns[name] = col
			} else {
				ct.columns[name] = make([]float64, n)
			}
		}
		cs.Tables = append(cs.Tables, ct)
		cs.index[rank] = i
	}
	return cs
}

func TestParseProperty(t *testing.T) {
	for _, name := range PropertyNames() {
		p, err := ParseProperty(name)
		if err != nil {
			t.Fatal(err)
		}
		if p.String() != name {
			t.Errorf("want %s but have %s", name, p.String())
		}
	}
	if _, err := ParseProperty("vorticity"); err == nil {
		t.Error("want an unknown-property error but have nil")
	}
}

func TestPropertyComponents(t *testing.T) {
	want := map[Property]int{
		Velocity:          2,
		NormalisedNematic: 2,
		Nematic:           2,
		VelocityAngle:     1,
		NematicAngle:      1,
	}
	for p, n := range want {
		if p.Components() != n {
			t.Errorf("%v: want %d components but have %d", p, n, p.Components())
		}
	}
}

func TestResolve_velocity(t *testing.T) {
	cs := testCellSeries(map[int]map[string][]float64{
		0: {"v0": {1, 3}, "v1": {5, 7}},
		1: {"v0": {2, 4}, "v1": {6, 8}},
	})
	components, err := cs.Resolve(Velocity, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 2 {
		t.Fatalf("want 2 components but have %d", len(components))
	}
	wantV0 := []float64{1, 2, 3, 4}
	wantV1 := []float64{5, 6, 7, 8}
	if !reflect.DeepEqual(wantV0, components[0].Elements) {
		t.Errorf("v0: want %v but have %v", wantV0, components[0].Elements)
	}
	if !reflect.DeepEqual(wantV1, components[1].Elements) {
		t.Errorf("v1: want %v but have %v", wantV1, components[1].Elements)
	}
}

func TestResolve_velocityAngle(t *testing.T) {
	cs := testCellSeries(map[int]map[string][]float64{
		0: {"v0": {1, 0, -1}, "v1": {0, 1, 0}},
	})
	components, err := cs.Resolve(VelocityAngle, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 1 {
		t.Fatalf("want 1 component but have %d", len(components))
	}
	want := []float64{0, math.Pi / 2, math.Pi}
	if !reflect.DeepEqual(want, components[0].Elements) {
		t.Errorf("want %v but have %v", want, components[0].Elements)
	}
	for _, angle := range components[0].Elements {
		if angle <= -math.Pi || angle > math.Pi {
			t.Errorf("angle %g outside (-π, π]", angle)
		}
	}
}

func TestResolve_nematicAngle(t *testing.T) {
	cs := testCellSeries(map[int]map[string][]float64{
		0: {"S0full": {0, 0, 0}, "S1full": {1, -1, 0}},
	})
	components, err := cs.Resolve(NematicAngle, 3)
	if err != nil {
		t.Fatal(err)
	}
	angles := components[0].Elements
	if angles[0] != math.Pi/4 {
		t.Errorf("S1=1: want %g but have %g", math.Pi/4, angles[0])
	}
	if angles[1] != -math.Pi/4 {
		t.Errorf("S1=-1: want %g but have %g", -math.Pi/4, angles[1])
	}
	// The orientation is undefined for S1 == 0; the convention is NaN.
	if !math.IsNaN(angles[2]) {
		t.Errorf("S1=0: want NaN but have %g", angles[2])
	}
}

func TestResolve_nematic(t *testing.T) {
	cs := testCellSeries(map[int]map[string][]float64{
		2: {"S0full": {0.5}, "S1full": {-0.5}, "S0": {0.7}, "S1": {-0.7}},
	})
	full, err := cs.Resolve(Nematic, 1)
	if err != nil {
		t.Fatal(err)
	}
	if full[0].Elements[0] != 0.5 || full[1].Elements[0] != -0.5 {
		t.Errorf("nematic: want [0.5 -0.5] but have [%g %g]",
			full[0].Elements[0], full[1].Elements[0])
	}
	norm, err := cs.Resolve(NormalisedNematic, 1)
	if err != nil {
		t.Fatal(err)
	}
	if norm[0].Elements[0] != 0.7 || norm[1].Elements[0] != -0.7 {
		t.Errorf("normalised nematic: want [0.7 -0.7] but have [%g %g]",
			norm[0].Elements[0], norm[1].Elements[0])
	}
}

func TestResolve_shapeMismatch(t *testing.T) {
	cs := testCellSeries(map[int]map[string][]float64{
		0: {"v0": {1, 2}, "v1": {0, 0}},
	})
	if _, err := cs.Resolve(Velocity, 3); err == nil {
		t.Error("want a timestep-mismatch error but have nil")
	}
}
