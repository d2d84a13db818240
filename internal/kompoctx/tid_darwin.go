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

//go:build darwin

package kompoctx

/*
#include <pthread.h>
*/
import "C"
import "unsafe"

// CurrentThreadID returns a stable identifier for the calling OS thread.
// Darwin has no gettid(2); pthread_self() is the closest stable per-thread
// handle golang.org/x/sys/unix exposes no wrapper for, so this file reaches
// directly into libpthread via cgo.
func CurrentThreadID() int64 {
	return int64(uintptr(unsafe.Pointer(C.pthread_self())))
}
