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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	phasefield "github.com/harishpjain/phasefield-scripts"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to PhaseField.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputDir",
			usage: `
              InputDir is the simulation output directory to post-process.
              It must contain the 'positions' directory with the per-cell
              CSV time series and the 'phasefield' directory with the npy
              grid and rank-field files. The path can include environment
              variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paintCmd.Flags()},
		},
		{
			name: "Property",
			usage: `
              Property is the name of the cell property to paint onto the
              rank field. The options are 'velocity', 'normalised nematic',
              'nematic', 'velocity angle', and 'nematic angle'. Leave it
              empty to paint the expression-defined OutputVariables instead.`,
			shorthand:  "p",
			defaultVal: "velocity",
			flagsets:   []*pflag.FlagSet{paintCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables maps names of derived output variables to
              expressions over the per-cell table columns, for example
              {"speed": "sqrt(v0**2 + v1**2)"}. It is only used when
              Property is empty.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{paintCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired NetCDF output file.
              It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "fields.nc",
			flagsets:   []*pflag.FlagSet{paintCmd.Flags()},
		},
		{
			name: "CacheLoc",
			usage: `
              CacheLoc specifies a directory for caching painted fields
              between runs. If empty, fields are only cached in memory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paintCmd.Flags()},
		},
		{
			name: "MaxCacheEntries",
			usage: `
              MaxCacheEntries specifies the maximum number of painted field
              sets to hold in the memory cache.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{paintCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PHASEFIELD")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(paintCmd)
	Root.AddCommand(propertiesCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("phasefield: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "phasefield",
	Short: "A phase-field cell-simulation post-processor.",
	Long: `PhaseField reconstructs spatial fields of derived cell properties
from phase-field cell-simulation output, by painting each cell's property
value onto the grid pixels that cell occupies in the rasterized rank field.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'PHASEFIELD_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of PhaseField.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("PhaseField v%s\n", phasefield.Version)
	},
	DisableAutoGenTag: true,
}

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List the paintable property names",
	Long: `properties lists the names of the built-in cell properties that
the paint command accepts.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range phasefield.PropertyNames() {
			cmd.Println(name)
		}
	},
	DisableAutoGenTag: true,
}

var paintCmd = &cobra.Command{
	Use:   "paint",
	Short: "Paint cell-property fields",
	Long: `paint reconstructs the spatial fields of a cell property for every
stored timestep and writes them to a NetCDF file. With --Property set, one
of the built-in derived properties is painted; with --Property empty, the
expression-defined OutputVariables are painted instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputDir, err := checkInputDir(Cfg.GetString("InputDir"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Paint(
			inputDir,
			outputFile,
			os.ExpandEnv(Cfg.GetString("Property")),
			GetStringMapString("OutputVariables", Cfg),
			os.ExpandEnv(Cfg.GetString("CacheLoc")),
			Cfg.GetInt("MaxCacheEntries"),
		)
	},
	DisableAutoGenTag: true,
}

// Paint reconstructs property or output-variable fields from the
// simulation output in inputDir and writes them to the NetCDF file
// outputFile.
func Paint(inputDir, outputFile, property string, outputVariables map[string]string, cacheLoc string, maxCacheEntries int) error {
	log := logrus.StandardLogger()
	session := phasefield.NewSession(inputDir)
	session.CacheLoc = cacheLoc
	session.MaxCacheEntries = maxCacheEntries
	session.Log = log

	ctx := context.Background()
	fields := make(map[string]*sparse.DenseArray)
	if property != "" {
		p, err := phasefield.ParseProperty(property)
		if err != nil {
			return err
		}
		components, err := session.PropertyFields(ctx, p)
		if err != nil {
			return err
		}
		base := strings.Replace(p.String(), " ", "_", -1)
		if len(components) == 1 {
			fields[base] = components[0]
		} else {
			for i, c := range components {
				fields[fmt.Sprintf("%s_%d", base, i)] = c
			}
		}
	} else {
		painted, err := session.OutputFields(ctx, outputVariables)
		if err != nil {
			return err
		}
		for name, f := range painted {
			fields[name] = f
		}
	}

	rf, err := session.RankField()
	if err != nil {
		return err
	}
	w, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("phasefield: creating output file: %v", err)
	}
	defer w.Close()
	if err := phasefield.WriteNetCDF(w, fields, rf.Coords, rf.Times); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"file":   outputFile,
		"fields": len(fields),
	}).Info("phasefield: wrote painted fields")
	return nil
}
