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

// Package main is KOMPOFS's cgo export shim: it is built with
// `go build -buildmode=c-shared` into a library the embedding host links
// directly into its binary. Every intercepted POSIX symbol is exported
// here with a C signature matching the host declaration bit-for-bit; each
// export does the minimal C-side argument shuffling (variadic mode_t
// extraction, errno plumbing) before handing off to
// internal/dispatch.Dispatcher, which is where every routing decision
// actually lives and is unit-tested.
//
// This package itself is intentionally thin and untested by `go test`
// (package main with cgo exports cannot be): internal/dispatch/dispatch_test.go
// is where the decision tree this shim drives is actually exercised,
// against a fake RealOS standing in for the C trampolines below.
package main

import "C"

import (
	"github.com/kompofs/kompofs/internal/dispatch"
	"github.com/kompofs/kompofs/internal/logger"
	"github.com/kompofs/kompofs"
)

// main is required for buildmode=c-shared but is never invoked; the host
// process calls into the exported symbols below directly, never Go's
// entrypoint.
func main() {}

// inst returns the process-wide KOMPOFS instance, building it on first use
// from the linked-in bundle symbols (see bundle_extern_unix.go). A nil
// return means the embedding build step never linked PATHS/FILES/
// FILES_SIZES/WD in, or the bundle was malformed; every exported function
// below must fall through to the real OS in that case rather than dereference
// a nil Dispatcher.
func inst() *kompofs.Instance {
	if existing := kompofs.Current(); existing != nil {
		return existing
	}
	raw, root, ok := externBundle()
	if !ok {
		return nil
	}
	got, err := kompofs.Init(root, raw, dispatch.LibcRealOS{})
	if err != nil {
		logger.Errorf("capi: bundle init failed: %v", err)
		return nil
	}
	return got
}
