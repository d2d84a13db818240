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

// Package pathvfs implements the Path Canonicalizer and the Working-Dir
// State: purely lexical path resolution against a process-wide optional
// virtual working directory. Neither probes the real filesystem.
package pathvfs

import "strings"

// Canonicalize resolves p against wd, the virtual working directory to
// resolve relative paths against (ignored when p is absolute).
//
//	Canonicalize("/a/b", "../c/./d") == "/a/c/d"
//	Canonicalize("/a", "../../b") == "/b"
//	Canonicalize("/home", "/etc/c") == "/home/etc/c" (inner root ignored)
//
// That third case is the one worth dwelling on: a leading "/" inside p is
// just another RootDir component, a no-op exactly like any other "/" found
// mid-path — it does not reset the accumulation back to the filesystem
// root. The dispatcher (internal/dispatch) passes an absolute path with an
// empty wd, so only "." / ".." resolution applies to it; relative paths are
// only canonicalized once a virtual working directory is known. This
// function's own contract over wd+p is the uniform push/pop rule below.
func Canonicalize(wd, p string) string {
	segs := append(splitSegments(wd), splitSegments(p)...)
	out := resolveDotDot(segs)
	return "/" + strings.Join(out, "/")
}

// splitSegments splits p on "/" into Normal-component segments only;
// leading/trailing/duplicate slashes collapse away, since extra RootDir
// components are no-ops.
func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue // CurDir and extra RootDir are no-ops
		default:
			out = append(out, part)
		}
	}
	return out
}

// resolveDotDot applies ParentDir components: pop the last pushed segment,
// or no-op if doing so would pop past the root.
func resolveDotDot(segs []string) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s == ".." {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Segments splits an already-canonical absolute path into trie-lookup
// segments (no leading "/" component, no empty parts).
func Segments(canonicalPath string) []string {
	return splitSegments(canonicalPath)
}
