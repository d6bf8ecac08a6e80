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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// SeriesColumns are the per-cell attributes that every cell table must
// carry, in the order they are written by the simulation.
var SeriesColumns = []string{
	"time", "rank", "x0", "x1", "r", "S0", "S1", "v0", "v1",
	"total_interaction", "neighbours", "confine_interaction",
	"growth_rate", "S0full", "S1full",
}

// CellTable holds the time-indexed attribute series for a single cell.
// Tables are loaded once per analysis session and never mutated.
type CellTable struct {
	Rank    int
	columns map[string][]float64
}

// Len returns the number of timesteps stored in the table.
func (ct *CellTable) Len() int { return len(ct.columns["time"]) }

// Column returns the time series for the named attribute.
func (ct *CellTable) Column(name string) ([]float64, error) {
	col, ok := ct.columns[name]
	if !ok {
		return nil, fmt.Errorf("phasefield: cell %d has no column '%s'", ct.Rank, name)
	}
	return col, nil
}

// CellSeries holds the attribute tables for all cells in a simulation.
// Tables is ordered so that Tables[i] belongs to Ranks[i], with Ranks in
// ascending order.
type CellSeries struct {
	Ranks  []int
	Tables []*CellTable

	// index maps a rank label to its position in Ranks, so that sparse
	// or large rank labels don't force rank-sized dense allocations.
	index map[int]int
}

// Index returns the compact column index for the given rank label.
func (cs *CellSeries) Index(rank int) (int, bool) {
	i, ok := cs.index[rank]
	return i, ok
}

// readCellTable parses one per-cell CSV file. The header row maps column
// names to positions; all required columns must be present.
func readCellTable(filename string, rank int) (*CellTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("phasefield: opening cell series file: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("phasefield: reading header of %s: %v", filename, err)
	}
	cols := make(map[string]int)
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range SeriesColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("phasefield: cell series file %s is missing column '%s'", filename, name)
		}
	}

	ct := &CellTable{Rank: rank, columns: make(map[string][]float64)}
	for {
		line, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("phasefield: reading %s: %v", filename, err)
		}
		for _, name := range SeriesColumns {
			v, err := strconv.ParseFloat(line[cols[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("phasefield: parsing column '%s' in %s: %v", name, filename, err)
			}
			ct.columns[name] = append(ct.columns[name], v)
		}
	}
	return ct, nil
}

var rankFileRE = regexp.MustCompile(`neo_positions_p(\d+)\.csv$`)

// LoadCellSeries loads the per-cell time-series tables from the positions
// subdirectory of the simulation output directory dir. The rank of each
// cell is taken from its file name, and the returned tables are sorted in
// ascending rank order.
func LoadCellSeries(dir string) (*CellSeries, error) {
	pattern := filepath.Join(dir, "positions", "neo_positions_p*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("phasefield: globbing cell series files: %v", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("phasefield: no cell series files match %s", pattern)
	}

	cs := &CellSeries{index: make(map[int]int)}
	for _, filename := range files {
		m := rankFileRE.FindStringSubmatch(filename)
		if m == nil {
			return nil, fmt.Errorf("phasefield: can't extract rank from file name %s", filename)
		}
		rank, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("phasefield: parsing rank from file name %s: %v", filename, err)
		}
		ct, err := readCellTable(filename, rank)
		if err != nil {
			return nil, err
		}
		cs.Ranks = append(cs.Ranks, rank)
		cs.Tables = append(cs.Tables, ct)
	}

	sort.Slice(cs.Tables, func(i, j int) bool { return cs.Tables[i].Rank < cs.Tables[j].Rank })
	sort.Ints(cs.Ranks)
	for i, rank := range cs.Ranks {
		if _, ok := cs.index[rank]; ok {
			return nil, fmt.Errorf("phasefield: duplicate cell series for rank %d", rank)
		}
		cs.index[rank] = i
	}
	return cs, nil
}
