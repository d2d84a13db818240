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

// This file resolves the "next dynamic-library symbol": the real
// open/read/stat/etc implementation, one library below this one in the
// dynamic linker's search order. There is no portable Go package for this —
// dlsym(RTLD_NEXT, ...) is a libc/ld.so primitive with no Go-native
// equivalent, so this file reaches for cgo rather than an ecosystem
// library (see DESIGN.md).
package dispatch

/*
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>
#include <errno.h>
#include <sys/stat.h>
#include <unistd.h>
#include <fcntl.h>

static void *kompofs_dlnext(const char *name) {
	return dlsym(RTLD_NEXT, name);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// symbolCache memoizes dlsym(RTLD_NEXT, ...) lookups: resolution happens
// lazily and is cached — each name is looked up once and never invalidated,
// since the dynamic-linker's search order cannot change underneath a
// running process.
type symbolCache struct {
	mu     sync.Mutex
	byName map[string]unsafe.Pointer
}

var nextSymbols = &symbolCache{byName: make(map[string]unsafe.Pointer)}

// lookup returns the cached next-symbol address for name, resolving it on
// first use. Panics if the symbol is absent, which can only happen if this
// binary was built without libc in its link chain.
func (c *symbolCache) lookup(name string) unsafe.Pointer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.byName[name]; ok {
		return p
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	p := C.kompofs_dlnext(cname)
	if p == nil {
		panic(fmt.Sprintf("kompofs: no next symbol for %q", name))
	}
	c.byName[name] = p
	return p
}

// NextSymbol exposes the resolved address of the real libc implementation
// of name, for use by the cgo export shim (package capi) which casts it to
// the appropriate C function-pointer type and calls through it. Kept here,
// rather than in capi, so the single process-wide cache is shared
// regardless of how many exported symbols reference the same name.
func NextSymbol(name string) unsafe.Pointer {
	return nextSymbols.lookup(name)
}
