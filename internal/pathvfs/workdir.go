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

package pathvfs

import "sync"

// WorkingDir is the process-wide optional virtual current directory. Every
// path-taking dispatcher call takes a shared read; only Set/Clear (driven
// by chdir) takes the exclusive write, favoring readers over the rare
// writer.
type WorkingDir struct {
	mu  sync.RWMutex
	dir string
	set bool
}

// Get returns the current virtual working directory and whether one is
// set.
func (w *WorkingDir) Get() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dir, w.set
}

// Set records dir as the virtual working directory, called on a successful
// virtual chdir.
func (w *WorkingDir) Set(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dir = dir
	w.set = true
}

// Clear removes the virtual working directory, called on a successful real
// chdir.
func (w *WorkingDir) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dir = ""
	w.set = false
}
