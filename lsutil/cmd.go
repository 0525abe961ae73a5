/*
Copyright © 2026 the localstress authors.
This file is part of localstress.

localstress is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

localstress is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with localstress.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package lsutil contains the command-line interface and configuration
// handling for the localstress converter.
package lsutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/localstress"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to localstress.
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
			name: "LogLevel",
			usage: `
              LogLevel sets the verbosity of log messages. Valid values are
              panic, fatal, error, warn, info and debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "input",
			usage: `
              input specifies the directory that holds local_stress.bin.
              Output files are written into the same directory.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), infoCmd.Flags(), synthCmd.Flags()},
		},
		{
			name: "strict",
			usage: `
              strict specifies whether data following the last species block
              in the input file should be treated as an error.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "formats",
			usage: `
              formats specifies the output formats to write. 'txt' writes one
              table per species named <species>.txt; 'nc' writes all species
              into local_stress.nc.`,
			defaultVal: []string{"txt"},
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "origin",
			usage: `
              origin specifies whether the lower corner of the simulation box
              should be added to the cell center coordinates. By default
              positions are measured from the box corner.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers specifies the number of species tables to write
              concurrently.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "SummaryFormat",
			usage: `
              SummaryFormat specifies the layout of the summary printed by
              info. Valid values are 'text' and 'toml'.`,
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
		{
			name: "mesh",
			usage: `
              mesh specifies the number of grid cells along each axis of a
              synthetic file. Its length sets the dimensionality.`,
			defaultVal: []int{2, 2},
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "box",
			usage: `
              box specifies the comma-separated box lengths of a synthetic
              file. It defaults to 1 along each axis.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "low",
			usage: `
              low specifies the comma-separated lower box corner of a
              synthetic file. It defaults to the origin.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "species",
			usage: `
              species specifies the species names written to a synthetic file.`,
			defaultVal: []string{"A"},
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LOCALSTRESS")
	Cfg.AutomaticEnv()

	for _, o := range options {
		set := o.flagsets[0]
		switch v := o.defaultVal.(type) {
		case string:
			set.StringP(o.name, o.shorthand, v, o.usage)
		case []string:
			set.StringSliceP(o.name, o.shorthand, v, o.usage)
		case bool:
			set.BoolP(o.name, o.shorthand, v, o.usage)
		case int:
			set.IntP(o.name, o.shorthand, v, o.usage)
		case []int:
			set.IntSliceP(o.name, o.shorthand, v, o.usage)
		default:
			panic(fmt.Errorf("localstress: option %s has unsupported type %T", o.name, v))
		}
		flag := set.Lookup(o.name)
		// Commands after the first share the same flag.
		for _, other := range o.flagsets[1:] {
			other.AddFlag(flag)
		}
		Cfg.BindPFlag(o.name, flag)
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(synthCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("localstress: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "localstress",
	Short: "Convert local stress distributions into gridded tables.",
	Long: `localstress converts the binary local stress distribution (local_stress.bin)
written by the local stress calculator into one stress table per particle
species, plus a table for the sum of all species.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'LOCALSTRESS_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of localstress.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("localstress v%s\n", localstress.Version)
	},
	DisableAutoGenTag: true,
}

// convertCmd converts a local stress file into stress tables.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert local_stress.bin into stress tables.",
	Long: `convert reads local_stress.bin from the input directory, sums the species
into a 'total' field, divides every field by the mesh cell volume and writes
the results into the input directory.

Each text table starts with a tab-separated header line followed by one line
per mesh cell holding the cell center and the stress tensor components:

	3D: #X  Y  Z  sxx  sxy  sxz  syx  syy  syz  szx  szy  szz
	2D: #X  Y  sxx  sxy  syx  syy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		dir, err := checkInputDir(Cfg.GetString("input"))
		if err != nil {
			return err
		}
		formats, err := checkFormats(Cfg.GetStringSlice("formats"))
		if err != nil {
			return err
		}
		_, err = Convert(log, dir, formats, Cfg.GetBool("origin"), Cfg.GetBool("strict"), Cfg.GetInt("workers"))
		return err
	},
	DisableAutoGenTag: true,
}

// infoCmd summarizes a local stress file.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarize local_stress.bin.",
	Long: `info prints the simulation geometry stored in local_stress.bin and the
box-averaged stress tensor of every species and of their total.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := checkInputDir(Cfg.GetString("input"))
		if err != nil {
			return err
		}
		format, err := checkSummaryFormat(Cfg.GetString("SummaryFormat"))
		if err != nil {
			return err
		}
		return Info(cmd.OutOrStdout(), dir, format, Cfg.GetBool("strict"))
	},
	DisableAutoGenTag: true,
}

// synthCmd writes a synthetic local stress file.
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic local_stress.bin.",
	Long: `synth writes a local_stress.bin with the given mesh, box and species into
the input directory. Tensor values increase with the cell index, the component
index and the species position, which makes the file useful for checking the
layout of converted tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		dir, err := checkInputDir(Cfg.GetString("input"))
		if err != nil {
			return err
		}
		mesh, err := toIntSliceE(Cfg.Get("mesh"))
		if err != nil {
			return fmt.Errorf("localstress: reading 'mesh': %v", err)
		}
		box, err := toFloat64SliceE(Cfg.GetString("box"), len(mesh), 1)
		if err != nil {
			return fmt.Errorf("localstress: reading 'box': %v", err)
		}
		low, err := toFloat64SliceE(Cfg.GetString("low"), len(mesh), 0)
		if err != nil {
			return fmt.Errorf("localstress: reading 'low': %v", err)
		}
		_, err = Synth(log, dir, mesh, box, low, Cfg.GetStringSlice("species"))
		return err
	},
	DisableAutoGenTag: true,
}
