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

//go:build (linux || darwin) && cgo

// This file reads the bundle blob (PATHS/PATHS_SIZE/FILES/FILES_SIZES/WD)
// from the five C symbols the out-of-scope build step links into the final
// binary alongside this shim. KOMPOFS never produces them itself; if they
// are absent, externBundle reports ok=false and every exported call in
// this package falls through to the real OS.
package main

/*
#include <stddef.h>
#include <stdint.h>

// Provided by the embedding build step, not by this module.
// Declared weak so a host that links this shim without ever running the
// bundling step still produces a loadable library instead of a link error.
__attribute__((weak)) extern const char PATHS[];
__attribute__((weak)) extern const unsigned long PATHS_SIZE;
__attribute__((weak)) extern const char FILES[];
__attribute__((weak)) extern const uint64_t FILES_SIZES[];
__attribute__((weak)) extern const char WD[];

static const char *kompofs_paths_ptr(void) { return PATHS; }
static unsigned long kompofs_paths_size(void) { return (unsigned long)&PATHS_SIZE == 0 ? 0 : PATHS_SIZE; }
static const uint64_t *kompofs_sizes_ptr(void) { return FILES_SIZES; }
static const char *kompofs_files_ptr(void) { return FILES; }
static const char *kompofs_wd_ptr(void) { return WD; }
*/
import "C"

import (
	"unsafe"

	"github.com/kompofs/kompofs/internal/bundle"
)

// externBundle builds a bundle.Raw from the linked-in C symbols. ok is
// false when the weak symbols were never satisfied (PATHS resolves to a
// null pointer), which is the expected shape when this shim is linked into
// a binary that did not run the bundling build step.
func externBundle() (raw bundle.Raw, root string, ok bool) {
	if C.kompofs_paths_ptr() == nil || C.kompofs_wd_ptr() == nil {
		return bundle.Raw{}, "", false
	}

	pathsSize := int(C.kompofs_paths_size())
	if pathsSize <= 0 {
		return bundle.Raw{}, "", false
	}
	paths := C.GoBytes(unsafe.Pointer(C.kompofs_paths_ptr()), C.int(pathsSize))

	n := countPaths(paths)
	sizesPtr := C.kompofs_sizes_ptr()
	if sizesPtr == nil {
		return bundle.Raw{}, "", false
	}
	sizesBytes := C.GoBytes(unsafe.Pointer(sizesPtr), C.int((n+1)*8))
	sizes := make([]uint64, n+1)
	for i := range sizes {
		sizes[i] = leU64(sizesBytes[i*8 : i*8+8])
	}

	total := sizes[n]
	files := C.GoBytes(unsafe.Pointer(C.kompofs_files_ptr()), C.int(total))

	root = C.GoString(C.kompofs_wd_ptr())

	return bundle.Raw{Paths: paths, Files: files, FileSizes: sizes}, root, true
}

// countPaths counts the N NUL-terminated path strings PATHS holds.
// PATHS_SIZE gives total bytes, not N; N is derived by counting separators
// the same way internal/bundle.Load does when it splits on NUL.
func countPaths(paths []byte) int {
	if len(paths) == 0 {
		return 0
	}
	n := 0
	for _, b := range paths {
		if b == 0 {
			n++
		}
	}
	// A PATHS blob without a trailing NUL still terminates its last entry
	// logically; internal/bundle.splitPaths treats a missing trailing NUL
	// the same as a present one for the final entry's purposes.
	if paths[len(paths)-1] != 0 {
		n++
	}
	return n
}

// leU64 decodes a little-endian uint64, matching the prefix-sum array the
// out-of-scope build step emits in the host's native byte order (x86-64 and
// arm64, KOMPOFS's two supported platforms, are both little-endian).
func leU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
