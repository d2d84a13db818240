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

// Package kompoctx implements the context flag: a process-wide map from
// thread identifier to boolean, with a scoped activation operation exposed
// to the host runtime. It is a pure informational side-channel; it does
// not gate internal/dispatch.
package kompoctx

import "sync"

// Flag is the thread-keyed boolean map. The zero value is ready to use.
type Flag struct {
	mu    sync.RWMutex
	byTid map[int64]bool
}

// IsContext returns tid's current flag value (false if never set).
func (f *Flag) IsContext(tid int64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.byTid[tid]
}

// EnterContext sets tid's flag to true, invokes block, and unconditionally
// restores the previous value on every exit path, including a panic
// unwinding through block, which is why the restore happens in a deferred
// func rather than after a plain call. Nested EnterContext calls on the
// same thread compose correctly since each restores its own prior value.
func (f *Flag) EnterContext(tid int64, block func()) {
	prev := f.IsContext(tid)
	f.setContext(tid, true)
	defer f.setContext(tid, prev)
	block()
}

func (f *Flag) setContext(tid int64, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byTid == nil {
		f.byTid = make(map[int64]bool)
	}
	if !v {
		delete(f.byTid, tid)
		return
	}
	f.byTid[tid] = v
}
