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

// Package cmd implements the kompofs inspection CLI: a small set of
// read-only commands over a bundle dumped to disk, useful for confirming
// what a build step packaged before linking it into a host binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/kompofs/kompofs/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	runtimeCfg    cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "kompofs",
	Short: "Inspect bundles built for KOMPOFS, the in-process bundle-backed filesystem",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		return configFileErr
	},
}

// Execute runs the root command, exiting the process with status 1 on
// error the way the teacher's cmd.Execute does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file.")
	cfg.BindFlags(rootCmd.PersistentFlags())
	bindErr = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	loaded, err := cfg.Load(cfgFile, viper.GetViper())
	if err != nil {
		configFileErr = err
		return
	}
	runtimeCfg = loaded
}
