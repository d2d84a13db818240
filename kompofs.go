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

// Package kompofs assembles the Bundle Loader, Path Trie Store, Descriptor
// Registry, Path Canonicalizer, Syscall Dispatcher, Context Flag and
// Working-Dir State into the single process-wide instance the cgo export
// shim (capi) drives: one lazily-built, long-lived struct the whole process
// shares.
package kompofs

import (
	"strings"
	"sync"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/bundle"
	"github.com/kompofs/kompofs/internal/dispatch"
	"github.com/kompofs/kompofs/internal/kompoctx"
	"github.com/kompofs/kompofs/internal/logger"
	"github.com/kompofs/kompofs/internal/pathvfs"
	"github.com/kompofs/kompofs/internal/registry"
)

// Instance is the assembled, ready-to-dispatch process state: initialization
// is performed once, and subsequent callers receive the same shared handle.
type Instance struct {
	Digest     string
	Root       string
	Dispatcher *dispatch.Dispatcher
	wd         *pathvfs.WorkingDir
	ctxFlag    *kompoctx.Flag
}

var (
	mu       sync.Mutex
	instance *Instance
)

// Init builds the process-wide Instance from raw bundle symbols, the
// virtual-root prefix, and the RealOS next-symbol forwarder. Subsequent
// calls are no-ops returning the already-built Instance.
func Init(root string, raw bundle.Raw, real dispatch.RealOS) (*Instance, error) {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance, nil
	}

	loaded, err := bundle.Load(raw)
	if err != nil {
		return nil, err
	}

	reg := registry.New(loaded.Trie, abi.SyntheticDev(), 4096)
	wd := &pathvfs.WorkingDir{}
	ctxFlag := &kompoctx.Flag{}
	d := dispatch.New(loaded.Trie, reg, wd, root, real, abi.SyntheticDev(), 4096)

	instance = &Instance{
		Digest:     loaded.Digest,
		Root:       root,
		Dispatcher: d,
		wd:         wd,
		ctxFlag:    ctxFlag,
	}
	logger.Infof("kompofs: initialized, root=%q digest=%s", root, loaded.Digest)
	return instance, nil
}

// Current returns the process-wide Instance, or nil if Init has not run
// yet. The cgo export shim calls this on every intercepted symbol before
// the dynamic linker has necessarily finished running constructors, so a
// nil Instance must fall through to the real OS rather than panic.
func Current() *Instance {
	mu.Lock()
	defer mu.Unlock()
	return instance
}

// SetEntrypointDir implements capi's kompo_fs_set_entrypoint_dir: sets the virtual
// working directory to parent(path). An empty path is a no-op.
func (inst *Instance) SetEntrypointDir(path string) {
	if path == "" {
		return
	}
	parent := parentOf(path)
	inst.wd.Set(parent)
	logger.Debugf("kompofs: entrypoint dir set to %q (from %q)", parent, path)
}

// parentOf returns the lexical parent directory of an absolute path, split
// with pathvfs.Segments (which drops empty and "." components but keeps
// "..") rather than a second path-splitting implementation.
func parentOf(path string) string {
	segs := pathvfs.Segments(path)
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/")
}

// EnterKompoContext implements the Kompo.context host control operation:
// scoped per-thread activation around block.
func (inst *Instance) EnterKompoContext(block func()) {
	inst.ctxFlag.EnterContext(kompoctx.CurrentThreadID(), block)
}

// IsKompoContext implements Kompo.context?: the current thread's flag
// value.
func (inst *Instance) IsKompoContext() bool {
	return inst.ctxFlag.IsContext(kompoctx.CurrentThreadID())
}
