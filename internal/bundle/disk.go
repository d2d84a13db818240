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

package bundle

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// LoadDir reads a bundle dumped to disk as three files (paths.bin,
// files.bin, sizes.bin holding a little-endian uint64 array) and parses
// it the same way the in-process linked-symbol form is parsed. This is
// the offline path cmd/kompofs uses to inspect a bundle without loading
// it into a live host process.
func LoadDir(dir string) (*Loaded, error) {
	paths, err := os.ReadFile(filepath.Join(dir, "paths.bin"))
	if err != nil {
		return nil, fmt.Errorf("bundle: read paths.bin: %w", err)
	}
	files, err := os.ReadFile(filepath.Join(dir, "files.bin"))
	if err != nil {
		return nil, fmt.Errorf("bundle: read files.bin: %w", err)
	}
	sizesRaw, err := os.ReadFile(filepath.Join(dir, "sizes.bin"))
	if err != nil {
		return nil, fmt.Errorf("bundle: read sizes.bin: %w", err)
	}
	if len(sizesRaw)%8 != 0 {
		return nil, fmt.Errorf("bundle: sizes.bin length %d is not a multiple of 8", len(sizesRaw))
	}
	sizes := make([]uint64, len(sizesRaw)/8)
	for i := range sizes {
		sizes[i] = binary.LittleEndian.Uint64(sizesRaw[i*8 : i*8+8])
	}
	return Load(Raw{Paths: paths, Files: files, FileSizes: sizes})
}
