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

package lsutil

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// Output formats accepted by the 'formats' option.
const (
	FormatText   = "txt"
	FormatNetCDF = "nc"
)

// checkInputDir expands any environment variables in the input directory
// and makes sure that it exists.
func checkInputDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("you need to specify the directory that holds %s "+
			"(for example: --input=./output)", "local_stress.bin")
	}
	dir = os.ExpandEnv(dir)
	fi, err := os.Stat(dir)
	if err != nil {
		return dir, fmt.Errorf("localstress: the input directory doesn't exist: %v", err)
	}
	if !fi.IsDir() {
		return dir, fmt.Errorf("localstress: the input path %s is not a directory", dir)
	}
	return dir, nil
}

// checkFormats lower-cases and de-duplicates the requested output formats
// and ensures that each one is supported.
func checkFormats(formats []string) ([]string, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("there are no output formats specified. Please set " +
			"the 'formats' option to 'txt', 'nc' or both")
	}
	seen := make(map[string]bool)
	var o []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(os.ExpandEnv(f)))
		if f != FormatText && f != FormatNetCDF {
			return nil, fmt.Errorf("the 'formats' option needs to contain only 'txt' or 'nc', "+
				"but contains `%s`", f)
		}
		if !seen[f] {
			seen[f] = true
			o = append(o, f)
		}
	}
	return o, nil
}

// checkSummaryFormat ensures that an acceptable summary layout was specified.
func checkSummaryFormat(f string) (string, error) {
	f = strings.ToLower(os.ExpandEnv(f))
	if f != "text" && f != "toml" {
		return f, fmt.Errorf("the SummaryFormat option needs to be set to either text or toml, "+
			"but is currently set to `%s`", f)
	}
	return f, nil
}

// toIntSliceE converts a configuration value into a []int. Values set on
// the command line arrive as strings such as "[2,2]".
func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToIntE(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		if !strings.HasPrefix(strings.TrimSpace(v), "[") {
			v = "[" + v + "]"
		}
		var o []int
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	}
	return cast.ToIntSliceE(s)
}

// toFloat64SliceE parses a comma-separated list of n numbers. An empty
// string results in n copies of def.
func toFloat64SliceE(s string, n int, def float64) ([]float64, error) {
	o := make([]float64, n)
	s = strings.Trim(strings.TrimSpace(os.ExpandEnv(s)), "[]")
	if s == "" {
		for i := range o {
			o[i] = def
		}
		return o, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("need %d values but got %d in %q", n, len(parts), s)
	}
	for i, p := range parts {
		v, err := cast.ToFloat64E(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		o[i] = v
	}
	return o, nil
}

// newLogger returns a logger that writes to the command's error output at
// the level given by the LogLevel option.
func newLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return nil, fmt.Errorf("localstress: LogLevel: %v", err)
	}
	log := logrus.New()
	log.Out = cmd.OutOrStderr()
	log.Level = lvl
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	}
	return log, nil
}
