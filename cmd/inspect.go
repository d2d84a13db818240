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

package cmd

import (
	"fmt"
	"strings"

	"github.com/kompofs/kompofs/internal/bundle"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the digest and entry count of a dumped bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := bundleDirFlag()
		if err != nil {
			return err
		}
		loaded, err := bundle.LoadDir(dir)
		if err != nil {
			return err
		}
		entries := loaded.Trie.PredictiveSearch(nil)
		fmt.Printf("digest: %s\n", loaded.Digest)
		fmt.Printf("entries: %d\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %8d  /%s\n", len(e.Content), strings.Join(e.Segments, "/"))
		}
		return nil
	},
}

func bundleDirFlag() (string, error) {
	if runtimeCfg.BundlePath == "" {
		return "", fmt.Errorf("kompofs: --bundle_path (or bundle_path in the config file) is required")
	}
	return runtimeCfg.BundlePath, nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
