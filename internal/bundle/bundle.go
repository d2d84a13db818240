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

// Package bundle implements the Bundle Loader: it turns the three raw
// symbols an embedding build step produces (PATHS, FILES, FILES_SIZES)
// into the immutable trie.Trie the rest of KOMPOFS serves reads from.
package bundle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/kompofs/kompofs/internal/logger"
	"github.com/kompofs/kompofs/internal/trie"
	"golang.org/x/sync/singleflight"
)

// ErrMalformedBundle is returned when the path count disagrees with
// len(FILES_SIZES)-1.
var ErrMalformedBundle = errors.New("kompofs: malformed bundle: path count does not match FILES_SIZES")

// Raw is the three external blobs, exactly as the out-of-scope build step
// produces them.
type Raw struct {
	// Paths holds N NUL-terminated absolute path strings concatenated.
	Paths []byte
	// Files holds the concatenation of the N file contents in order.
	Files []byte
	// FileSizes is the prefix-sum offset array into Files; FileSizes[0]
	// must be 0 and FileSizes[len(FileSizes)-1] must equal len(Files).
	FileSizes []uint64
}

// Loaded is the result of a successful Load: the frozen trie plus a content
// digest an operator can use to confirm which bundle a running process has
// loaded, a cheap byproduct of the loader's single pass over
// Paths/FileSizes.
type Loaded struct {
	Trie   *trie.Trie
	Digest string
}

var group singleflight.Group

// Load parses raw into a Loaded bundle. Concurrent callers collapse onto one
// parse via singleflight (under a single fixed key, whatever raw each
// passed) and share its result; a call made after that parse has finished
// parses again and returns a new handle.
//
// Load itself doesn't cache across calls — that is the caller's job (see the top-level kompofs.Init, which calls this
// exactly once per process using the linked-in bundle symbols).
func Load(raw Raw) (*Loaded, error) {
	v, err, _ := group.Do("bundle", func() (interface{}, error) {
		return load(raw)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Loaded), nil
}

func load(raw Raw) (*Loaded, error) {
	paths := splitPaths(raw.Paths)
	n := len(paths)
	if len(raw.FileSizes) != n+1 {
		logger.Errorf("bundle: malformed: %d paths but %d file-size entries", n, len(raw.FileSizes))
		return nil, ErrMalformedBundle
	}
	if raw.FileSizes[0] != 0 {
		return nil, fmt.Errorf("%w: FILES_SIZES[0] = %d, want 0", ErrMalformedBundle, raw.FileSizes[0])
	}
	if raw.FileSizes[n] != uint64(len(raw.Files)) {
		return nil, fmt.Errorf("%w: FILES_SIZES[N] = %d, want %d", ErrMalformedBundle, raw.FileSizes[n], len(raw.Files))
	}

	b := trie.NewBuilder()
	for i, p := range paths {
		lo, hi := raw.FileSizes[i], raw.FileSizes[i+1]
		if hi < lo || hi > uint64(len(raw.Files)) {
			return nil, fmt.Errorf("%w: entry %d has invalid range [%d,%d)", ErrMalformedBundle, i, lo, hi)
		}
		segments := splitSegments(p)
		if len(segments) == 0 {
			continue
		}
		b.Insert(segments, raw.Files[lo:hi])
	}

	logger.Infof("bundle: loaded %d entries (%d content bytes)", n, len(raw.Files))
	return &Loaded{
		Trie:   b.Freeze(),
		Digest: digest(raw),
	}, nil
}

// splitPaths splits PATHS on NUL into the N path strings.
func splitPaths(paths []byte) []string {
	if len(paths) == 0 {
		return nil
	}
	trimmed := paths
	if trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if len(trimmed) == 0 {
		return nil
	}
	parts := bytes.Split(trimmed, []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

// splitSegments splits an absolute, OS-native path on "/" into non-empty
// segments. Paths are OS-native bytes with "/" separators.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		out = append(out, p)
	}
	return out
}

func digest(raw Raw) string {
	h := sha256.New()
	h.Write(raw.Paths)
	for _, sz := range raw.FileSizes {
		h.Write([]byte{
			byte(sz), byte(sz >> 8), byte(sz >> 16), byte(sz >> 24),
			byte(sz >> 32), byte(sz >> 40), byte(sz >> 48), byte(sz >> 56),
		})
	}
	return hex.EncodeToString(h.Sum(nil))
}
