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

package phasefieldutil

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	phasefield "github.com/harishpjain/phasefield-scripts"
)

// writeTestSession writes a minimal simulation output directory with two
// cells on a 1×2 grid over one timestep.
func writeTestSession(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"positions", "phasefield"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for rank, v0 := range map[int]string{0: "3", 1: "4"} {
		var b strings.Builder
		b.WriteString(strings.Join(phasefield.SeriesColumns, ",") + "\n")
		row := make([]string, len(phasefield.SeriesColumns))
		for i, name := range phasefield.SeriesColumns {
			switch name {
			case "rank":
				row[i] = fmt.Sprint(rank)
			case "v0":
				row[i] = v0
			default:
				row[i] = "0"
			}
		}
		b.WriteString(strings.Join(row, ",") + "\n")
		filename := filepath.Join(dir, "positions", fmt.Sprintf("neo_positions_p%d.csv", rank))
		if err := os.WriteFile(filename, []byte(b.String()), 0644); err != nil {
			t.Fatal(err)
		}
	}

	writeNpy := func(name string, v interface{}) {
		f, err := os.Create(filepath.Join(dir, "phasefield", name))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := npyio.Write(f, v); err != nil {
			t.Fatal(err)
		}
	}
	writeNpy("grid_x.npy", mat.NewDense(1, 2, []float64{0, 1}))
	writeNpy("grid_y.npy", mat.NewDense(1, 2, []float64{0, 0}))
	writeNpy("timesteps.npy", []float64{0})
	writeNpy(fmt.Sprintf("phi_field%06.3f.npy", 0.0), mat.NewDense(1, 2, []float64{0, 1}))
	return dir
}

func TestPaintCommand(t *testing.T) {
	dir := writeTestSession(t)
	outputFile := filepath.Join(t.TempDir(), "fields.nc")

	if err := Paint(dir, outputFile, "velocity", nil, "", 10); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	v0, err := phasefield.ReadNetCDF(r, "velocity_0")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{3, 4}
	if !reflect.DeepEqual(want, v0.Elements) {
		t.Errorf("velocity_0: want %v but have %v", want, v0.Elements)
	}
}

func TestPaintCommand_expressions(t *testing.T) {
	dir := writeTestSession(t)
	outputFile := filepath.Join(t.TempDir(), "fields.nc")

	vars := map[string]string{"speed": "sqrt(v0**2 + v1**2)"}
	if err := Paint(dir, outputFile, "", vars, "", 10); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	speed, err := phasefield.ReadNetCDF(r, "speed")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{3, 4}
	if !reflect.DeepEqual(want, speed.Elements) {
		t.Errorf("speed: want %v but have %v", want, speed.Elements)
	}
}

func TestPaintCommand_badProperty(t *testing.T) {
	dir := writeTestSession(t)
	outputFile := filepath.Join(t.TempDir(), "fields.nc")
	if err := Paint(dir, outputFile, "vorticity", nil, "", 10); err == nil {
		t.Error("want an unknown-property error but have nil")
	}
}

func TestCheckInputDir(t *testing.T) {
	if _, err := checkInputDir(""); err == nil {
		t.Error("empty dir: want an error but have nil")
	}
	if _, err := checkInputDir("/does/not/exist"); err == nil {
		t.Error("missing dir: want an error but have nil")
	}
	dir := t.TempDir()
	have, err := checkInputDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if have != dir {
		t.Errorf("want %s but have %s", dir, have)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("empty file: want an error but have nil")
	}
	if _, err := checkOutputFile("/does/not/exist/fields.nc"); err == nil {
		t.Error("missing dir: want an error but have nil")
	}
}

func TestGetStringMapString(t *testing.T) {
	Cfg.Set("TestVars", `{"speed": "sqrt(v0**2 + v1**2)"}`)
	want := map[string]string{"speed": "sqrt(v0**2 + v1**2)"}
	if have := GetStringMapString("TestVars", Cfg); !reflect.DeepEqual(want, have) {
		t.Errorf("want %v but have %v", want, have)
	}
	Cfg.Set("TestVars2", map[string]interface{}{"a": "b"})
	if have := GetStringMapString("TestVars2", Cfg); !reflect.DeepEqual(map[string]string{"a": "b"}, have) {
		t.Errorf("want map[a:b] but have %v", have)
	}
}
