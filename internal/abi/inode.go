// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package abi

import "hash/fnv"

// Inode derives a deterministic st_ino from a path-segment sequence:
// inode(path) = hash(path_segments). Collisions are accepted; FNV-1a over
// the joined segments gives a stable 64-bit value for the process
// lifetime, which is all that's required.
func Inode(segments []string) uint64 {
	h := fnv.New64a()
	for _, s := range segments {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	v := h.Sum64()
	if v == 0 {
		// Reserve 0 for "no inode"; vanishingly unlikely but cheap to avoid.
		v = 1
	}
	return v
}
