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

// The host-control half of the exported surface: the two operations the
// embedding runtime binds onto its own `Kompo` object (context enter/query)
// plus the entrypoint-directory initialization call. Unlike the POSIX
// surface in posix_unix.go, these have no libc symbol to shadow; the host
// binds them directly to whatever callable-from-native mechanism its own
// language runtime offers (e.g. a method backed by a C function pointer),
// so they are exported under KOMPOFS's own names rather than any
// interposed symbol.
package main

/*
#include <stdint.h>
#include <stdlib.h>

static void kompofs_call_host_callback(uintptr_t fn, uintptr_t arg) {
	void (*cb)(void *) = (void (*)(void *))fn;
	cb((void *)arg);
}
*/
import "C"

// kompo_fs_set_entrypoint_dir sets the virtual working directory to
// parent(path). A null path is a no-op. This is also where the
// process-wide Instance gets its first chance to initialize if nothing has
// opened a virtual path yet.
//
//export kompo_fs_set_entrypoint_dir
func kompo_fs_set_entrypoint_dir(path *C.char) {
	d := inst()
	if d == nil || path == nil {
		return
	}
	d.SetEntrypointDir(C.GoString(path))
}

// kompofs_context_enter implements the context flag's scoped activation:
// sets the calling thread's flag to true, invokes the host-supplied
// callback through the C function pointer it hands us, and restores the
// prior value when the callback returns. The restore is a Go defer: a C
// longjmp out of the callback does not return through this function, so
// the restore does not run in that case.
//
//export kompofs_context_enter
func kompofs_context_enter(callback C.uintptr_t, arg C.uintptr_t) {
	d := inst()
	block := func() {
		invokeHostCallback(callback, arg)
	}
	if d == nil {
		// No bundle loaded: the callback still runs, but no flag is set,
		// and kompofs_context_query reports 0 while there is no Instance.
		block()
		return
	}
	d.EnterKompoContext(block)
}

// kompofs_context_query returns the calling thread's current flag value, 1
// or 0.
//
//export kompofs_context_query
func kompofs_context_query() C.int {
	d := inst()
	if d == nil {
		return 0
	}
	if d.IsKompoContext() {
		return 1
	}
	return 0
}

// invokeHostCallback calls the host-supplied C function pointer, passed as
// a uintptr_t since cgo exports cannot declare a Go-side function-pointer
// parameter type directly.
func invokeHostCallback(callback, arg C.uintptr_t) {
	C.kompofs_call_host_callback(callback, arg)
}
