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

var statCmd = &cobra.Command{
	Use:   "stat [path]",
	Short: "Classify one path against a dumped bundle as file, directory, or absent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := bundleDirFlag()
		if err != nil {
			return err
		}
		loaded, err := bundle.LoadDir(dir)
		if err != nil {
			return err
		}
		segments := splitPath(args[0])
		ft, ok := loaded.Trie.Classify(segments)
		if !ok {
			fmt.Println("absent")
			return nil
		}
		if ft.IsDir {
			fmt.Printf("dir, %d children\n", len(ft.Children))
			for _, c := range ft.Children {
				fmt.Printf("  %s\n", c)
			}
			return nil
		}
		fmt.Printf("file, %d bytes\n", len(ft.Content))
		return nil
	},
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	return out
}

func init() {
	rootCmd.AddCommand(statCmd)
}
