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
	"github.com/Knetic/govaluate"
)

// Outputter resolves user-defined output variables into per-rank scalar
// arrays that can be painted like the built-in properties.
//
// outputVariables maps the names of the variables for which fields should
// be produced to expressions that define how they are calculated. The
// expressions can use the cell-table columns as variables, along with the
// functions defined in outputFunctions.
type Outputter struct {
	outputVariables map[string]string
	expressions     map[string]*govaluate.EvaluableExpression
	modelVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes a new Outputter holder and adds a set of
// default output functions. Default functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'sqrt(x)' which applies the square root function.
//
// 'abs(x)' which applies the absolute value function.
//
// 'atan2(y, x)' which calculates the angle of the vector (x, y)
// in (-π, π].
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("phasefield: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return (float64)(math.Exp(arg[0].(float64))), nil
		},
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("phasefield: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return (float64)(math.Sqrt(arg[0].(float64))), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("phasefield: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return (float64)(math.Abs(arg[0].(float64))), nil
		},
		"atan2": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("phasefield: got %d arguments for function 'atan2', but needs 2", len(args))
			}
			return (float64)(math.Atan2(args[0].(float64), args[1].(float64))), nil
		},
	}

	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}

	if len(outputVariables) == 0 {
		return nil, fmt.Errorf("phasefield: there are no variables specified for output")
	}

	o := &Outputter{
		outputVariables: outputVariables,
		expressions:     make(map[string]*govaluate.EvaluableExpression),
		outputFunctions: defaultOutputFuncs,
	}

	columns := make(map[string]struct{})
	for _, name := range SeriesColumns {
		columns[name] = struct{}{}
	}
	seen := make(map[string]struct{})
	for key, val := range o.outputVariables {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(val, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("phasefield: output variable '%s': %v", key, err)
		}
		for _, v := range expression.Vars() {
			if _, ok := columns[v]; !ok {
				return nil, fmt.Errorf("phasefield: output variable '%s' uses '%s', which is not a cell-table column", key, v)
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				o.modelVariables = append(o.modelVariables, v)
			}
		}
		o.expressions[key] = expression
	}
	sort.Strings(o.modelVariables)
	return o, nil
}

// ModelVariables returns the unique cell-table columns required to
// calculate the requested output variables.
func (o *Outputter) ModelVariables() []string { return o.modelVariables }

// Resolve evaluates the output-variable expressions for every cell at
// every timestep, returning one [nt, ranks] array per output variable.
func (o *Outputter) Resolve(cs *CellSeries, nt int) (map[string]*sparse.DenseArray, error) {
	inputs := make(map[string]*sparse.DenseArray, len(o.modelVariables))
	for _, name := range o.modelVariables {
		in, err := cs.perRank(name, nt)
		if err != nil {
			return nil, err
		}
		inputs[name] = in
	}

	out := make(map[string]*sparse.DenseArray, len(o.expressions))
	params := make(map[string]interface{}, len(o.modelVariables))
	for key, expression := range o.expressions {
		a := sparse.ZerosDense(nt, len(cs.Ranks))
		for i := range a.Elements {
			for _, name := range o.modelVariables {
				params[name] = inputs[name].Elements[i]
			}
			v, err := expression.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("phasefield: evaluating output variable '%s': %v", key, err)
			}
			vf, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("phasefield: output variable '%s' yields %T; it must yield a number", key, v)
			}
			a.Elements[i] = vf
		}
		out[key] = a
	}
	return out, nil
}

// PaintOutputs resolves the output variables against the cell series and
// paints each of them onto the rank field.
func (o *Outputter) PaintOutputs(rf *RankField, cs *CellSeries) (map[string]*sparse.DenseArray, error) {
	resolved, err := o.Resolve(cs, len(rf.Times))
	if err != nil {
		return nil, err
	}
	fields := make(map[string]*sparse.DenseArray, len(resolved))
	for key, scalar := range resolved {
		if fields[key], err = Paint(rf, cs.Ranks, scalar); err != nil {
			return nil, err
		}
	}
	return fields, nil
}
