// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cfg is KOMPOFS's configuration surface for the cmd/kompofs
// inspection CLI: a struct decoded from YAML via mapstructure, with
// pflag-bound overrides and a viper loader tying the two together.
package cfg

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig mirrors internal/logger's two environment knobs, made
// file/flag-configurable for the CLI rather than only env-settable.
type LogConfig struct {
	Severity string `yaml:"severity" mapstructure:"severity"`
	Format   string `yaml:"format" mapstructure:"format"`
}

// Config is the root decoded configuration for cmd/kompofs.
type Config struct {
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// BundlePath points at a directory holding paths.bin/files.bin/
	// sizes.bin dumped by a build step, for `kompofs inspect`/`kompofs stat`
	// to load without a live host process. Empty means commands requiring a
	// bundle must be given one on the command line instead.
	BundlePath string `yaml:"bundle_path" mapstructure:"bundle_path"`
}

// Default returns the zero-value-safe configuration used when no config
// file is given.
func Default() Config {
	return Config{Log: LogConfig{Severity: "WARNING", Format: "text"}}
}

// BindFlags registers the CLI overrides for every Config field onto fs,
// one pflag per field.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("log.severity", "WARNING", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR.")
	fs.String("log.format", "text", "Log output format: text or json.")
	fs.String("bundle_path", "", "Directory holding a dumped bundle (paths.bin/files.bin/sizes.bin).")
}

// Load reads an optional YAML file at path (skipped when path is empty; a
// file that cannot be read is an error), overlays any pflag values the
// caller has set via v, and decodes the result into a Config via a
// two-stage viper-then-mapstructure pipeline.
func Load(path string, v *viper.Viper) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("cfg: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(b, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("cfg: parse %s: %w", path, err)
		}
		cfg = fileCfg
		if v != nil {
			// Merged into v so the file's values outrank the flag defaults
			// v.AllSettings reports for every flag the user did not set.
			var fileMap map[string]interface{}
			if err := yaml.Unmarshal(b, &fileMap); err != nil {
				return Config{}, fmt.Errorf("cfg: parse %s: %w", path, err)
			}
			if err := v.MergeConfigMap(fileMap); err != nil {
				return Config{}, fmt.Errorf("cfg: merge %s: %w", path, err)
			}
		}
	}

	if v != nil {
		raw := v.AllSettings()
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return Config{}, fmt.Errorf("cfg: build decoder: %w", err)
		}
		if err := dec.Decode(raw); err != nil {
			return Config{}, fmt.Errorf("cfg: decode flags: %w", err)
		}
	}

	return cfg, nil
}
