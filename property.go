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
	"math"
	"sort"

	"github.com/ctessum/sparse"
)

// Property identifies a derived per-cell quantity that can be painted
// onto the rank field.
type Property int

const (
	// Velocity is the center-of-mass velocity (2 components).
	Velocity Property = iota
	// NormalisedNematic is the shape tensor scaled to unit magnitude
	// (2 components).
	NormalisedNematic
	// Nematic is the full shape tensor (2 components).
	Nematic
	// VelocityAngle is the velocity orientation in (-π, π].
	VelocityAngle
	// NematicAngle is the nematic orientation derived from the full
	// shape tensor.
	NematicAngle
)

var propertyNames = map[string]Property{
	"velocity":           Velocity,
	"normalised nematic": NormalisedNematic,
	"nematic":            Nematic,
	"velocity angle":     VelocityAngle,
	"nematic angle":      NematicAngle,
}

// PropertyNames returns the recognized property names in sorted order.
func PropertyNames() []string {
	names := make([]string, 0, len(propertyNames))
	for name := range propertyNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseProperty returns the property with the given name. Unlike the
// columns in the cell tables, property names describe derived quantities;
// an unknown name is an error.
func ParseProperty(name string) (Property, error) {
	p, ok := propertyNames[name]
	if !ok {
		return 0, fmt.Errorf("phasefield: unknown property '%s'; options are "+
			"'velocity', 'normalised nematic', 'nematic', 'velocity angle', and 'nematic angle'", name)
	}
	return p, nil
}

func (p Property) String() string {
	for name, pp := range propertyNames {
		if pp == p {
			return name
		}
	}
	return fmt.Sprintf("unknown property (%d)", int(p))
}

// Components returns the number of scalar components the property has.
func (p Property) Components() int {
	switch p {
	case Velocity, NormalisedNematic, Nematic:
		return 2
	default:
		return 1
	}
}

// perRank collects the named column from every cell table into an array
// with shape [nt, len(cs.Ranks)], where the second axis follows the
// compact rank order of cs.Ranks.
func (cs *CellSeries) perRank(name string, nt int) (*sparse.DenseArray, error) {
	o := sparse.ZerosDense(nt, len(cs.Ranks))
	for j, ct := range cs.Tables {
		col, err := ct.Column(name)
		if err != nil {
			return nil, err
		}
		if len(col) != nt {
			return nil, fmt.Errorf("phasefield: cell %d has %d timesteps but the time axis has %d",
				ct.Rank, len(col), nt)
		}
		for t, v := range col {
			o.Set(v, t, j)
		}
	}
	return o, nil
}

// Resolve returns the per-rank scalar arrays needed to paint property p,
// one [nt, ranks] array per component. nt must equal the length of the
// rank-field timestep axis; a cell table with a different number of
// timesteps is a shape-mismatch error.
//
// For NematicAngle, samples with S1full == 0 resolve to NaN: both the
// sign and the division in the orientation formula are undefined there,
// and NaN propagates that rather than guessing an orientation.
func (cs *CellSeries) Resolve(p Property, nt int) ([]*sparse.DenseArray, error) {
	switch p {
	case Velocity:
		return cs.perRankPair("v0", "v1", nt)
	case NormalisedNematic:
		return cs.perRankPair("S0", "S1", nt)
	case Nematic:
		return cs.perRankPair("S0full", "S1full", nt)
	case VelocityAngle:
		vs, err := cs.perRankPair("v0", "v1", nt)
		if err != nil {
			return nil, err
		}
		v0, v1 := vs[0], vs[1]
		angle := sparse.ZerosDense(v0.Shape...)
		for i := range angle.Elements {
			angle.Elements[i] = math.Atan2(v1.Elements[i], v0.Elements[i])
		}
		return []*sparse.DenseArray{angle}, nil
	case NematicAngle:
		ss, err := cs.perRankPair("S0full", "S1full", nt)
		if err != nil {
			return nil, err
		}
		s0, s1 := ss[0], ss[1]
		angle := sparse.ZerosDense(s0.Shape...)
		for i := range angle.Elements {
			angle.Elements[i] = nematicAngle(s0.Elements[i], s1.Elements[i])
		}
		return []*sparse.DenseArray{angle}, nil
	default:
		return nil, fmt.Errorf("phasefield: unsupported property %v", p)
	}
}

func (cs *CellSeries) perRankPair(name0, name1 string, nt int) ([]*sparse.DenseArray, error) {
	a0, err := cs.perRank(name0, nt)
	if err != nil {
		return nil, err
	}
	a1, err := cs.perRank(name1, nt)
	if err != nil {
		return nil, err
	}
	return []*sparse.DenseArray{a0, a1}, nil
}

// nematicAngle converts the two independent shape-tensor components into
// an orientation angle, sign(S1)·(atan(S0/|S1|)/2 + π/4).
func nematicAngle(s0, s1 float64) float64 {
	if s1 == 0 {
		return math.NaN()
	}
	sign := 1.
	if s1 < 0 {
		sign = -1.
	}
	return sign * (math.Atan(s0/math.Abs(s1))/2 + math.Pi/4)
}
