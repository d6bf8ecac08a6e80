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
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
)

func init() {
	// These are the types that will be stored in the cache.
	gob.Register(sparse.DenseArray{})
	gob.Register([]*sparse.DenseArray{})
	gob.Register(map[string]*sparse.DenseArray{})
}

// Session binds a simulation output directory to lazily-loaded data
// providers and caches painted fields, so that repeated requests within
// one analysis session are only computed once.
type Session struct {
	// InputDir is the simulation output directory, containing the
	// positions and phasefield subdirectories.
	InputDir string

	// CacheLoc specifies a directory to cache painted fields in. If it
	// is empty, fields are only cached in memory.
	CacheLoc string

	// MaxCacheEntries specifies the maximum number of painted field
	// sets to hold in the memory cache.
	MaxCacheEntries int

	Log logrus.FieldLogger

	loadSeriesOnce sync.Once
	series         *CellSeries
	seriesErr      error

	loadRankFieldOnce sync.Once
	rankField         *RankField
	rankFieldErr      error

	loadPaintOnce sync.Once
	paintCache    *requestcache.Cache
}

// NewSession creates a new analysis session for the simulation output
// in inputDir.
func NewSession(inputDir string) *Session {
	return &Session{
		InputDir:        inputDir,
		MaxCacheEntries: 10,
		Log:             logrus.StandardLogger(),
	}
}

// CellSeries returns the per-cell time-series tables, loading them on
// first use.
func (s *Session) CellSeries() (*CellSeries, error) {
	s.loadSeriesOnce.Do(func() {
		s.series, s.seriesErr = LoadCellSeries(s.InputDir)
		if s.seriesErr == nil {
			s.Log.WithFields(logrus.Fields{
				"dir":   s.InputDir,
				"ranks": len(s.series.Ranks),
			}).Info("phasefield: loaded cell series")
		}
	})
	return s.series, s.seriesErr
}

// RankField returns the rank-field snapshots, loading them on first use.
func (s *Session) RankField() (*RankField, error) {
	s.loadRankFieldOnce.Do(func() {
		s.rankField, s.rankFieldErr = LoadRankField(s.InputDir)
		if s.rankFieldErr == nil {
			s.Log.WithFields(logrus.Fields{
				"dir":       s.InputDir,
				"timesteps": len(s.rankField.Times),
				"ny":        s.rankField.Data.Shape[1],
				"nx":        s.rankField.Data.Shape[2],
			}).Info("phasefield: loaded rank field")
		}
	})
	return s.rankField, s.rankFieldErr
}

// paintRequest asks for painted fields of either a built-in property or
// a set of expression-defined output variables.
type paintRequest struct {
	Property  string
	Variables map[string]string
}

// Key returns a unique identifier for this request.
func (r *paintRequest) Key() string {
	if r.Property != "" {
		return "paintprop_" + strings.Replace(r.Property, " ", "_", -1)
	}
	names := make([]string, 0, len(r.Variables))
	for name := range r.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("paintexpr")
	for _, name := range names {
		fmt.Fprintf(&b, "_%s=%s", name, r.Variables[name])
	}
	return b.String()
}

// PropertyFields returns the painted field sequences for property p, one
// per component, computing them at most once per session.
func (s *Session) PropertyFields(ctx context.Context, p Property) ([]*sparse.DenseArray, error) {
	s.loadPaintOnce.Do(func() {
		s.paintCache = loadCacheOnce(s.paintWorker, 1, s.MaxCacheEntries, s.CacheLoc,
			requestcache.MarshalGob, requestcache.UnmarshalGob)
	})
	req := &paintRequest{Property: p.String()}
	rr := s.paintCache.NewRequest(ctx, req, req.Key())
	resultI, err := rr.Result()
	if err != nil {
		return nil, err
	}
	return resultI.([]*sparse.DenseArray), nil
}

// OutputFields returns painted field sequences for the expression-defined
// output variables, computing them at most once per session.
func (s *Session) OutputFields(ctx context.Context, outputVariables map[string]string) (map[string]*sparse.DenseArray, error) {
	s.loadPaintOnce.Do(func() {
		s.paintCache = loadCacheOnce(s.paintWorker, 1, s.MaxCacheEntries, s.CacheLoc,
			requestcache.MarshalGob, requestcache.UnmarshalGob)
	})
	req := &paintRequest{Variables: outputVariables}
	rr := s.paintCache.NewRequest(ctx, req, req.Key())
	resultI, err := rr.Result()
	if err != nil {
		return nil, err
	}
	return resultI.(map[string]*sparse.DenseArray), nil
}

// paintWorker computes the painted fields for a paint request.
func (s *Session) paintWorker(ctx context.Context, request interface{}) (interface{}, error) {
	cs, err := s.CellSeries()
	if err != nil {
		return nil, err
	}
	rf, err := s.RankField()
	if err != nil {
		return nil, err
	}

	req := request.(*paintRequest)
	if req.Property != "" {
		p, err := ParseProperty(req.Property)
		if err != nil {
			return nil, err
		}
		s.Log.WithFields(logrus.Fields{
			"property":  req.Property,
			"timesteps": len(rf.Times),
			"ranks":     len(cs.Ranks),
		}).Info("phasefield: painting property fields")
		return PaintProperty(rf, cs, p)
	}
	o, err := NewOutputter(req.Variables, nil)
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{
		"variables": len(req.Variables),
		"timesteps": len(rf.Times),
		"ranks":     len(cs.Ranks),
	}).Info("phasefield: painting output-variable fields")
	return o.PaintOutputs(rf, cs)
}

// loadCacheOnce creates a cache for painted fields, either in memory only
// or backed by a directory on disk.
func loadCacheOnce(f requestcache.ProcessFunc, workers, memCacheSize int, cacheLoc string, marshal func(interface{}) ([]byte, error), unmarshal func([]byte) (interface{}, error)) *requestcache.Cache {
	if cacheLoc == "" {
		return requestcache.NewCache(f, workers, requestcache.Deduplicate(),
			requestcache.Memory(memCacheSize))
	}
	return requestcache.NewCache(f, workers, requestcache.Deduplicate(),
		requestcache.Memory(memCacheSize), requestcache.Disk(cacheLoc, marshal, unmarshal))
}
