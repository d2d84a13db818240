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

//go:build (linux || darwin) && cgo

// LibcRealOS implements RealOS by casting the addresses NextSymbol resolves
// to C function-pointer types and calling through them. A Go func value
// cannot call an arbitrary C function pointer directly, so each signature
// gets a small C trampoline; this is the standard shape for a libc
// interposition library (cf. how an LD_PRELOAD shim calls through
// dlsym(RTLD_NEXT, ...) in C) and has no Go-native equivalent to reach for
// instead. Every trampoline call uses cgo's two-result errno-capture form
// (`ret, errno := C.fn(...)`) rather than a hand-rolled errno() accessor.
package dispatch

/*
#include <dirent.h>
#include <stdlib.h>
#include <string.h>
#include <sys/stat.h>
#include <unistd.h>
#include <fcntl.h>

static int kompofs_call_open(void *fn, const char *path, int flags, int mode) {
	int (*real_open)(const char *, int, ...) = fn;
	return real_open(path, flags, mode);
}

static int kompofs_call_close(void *fn, int fd) {
	int (*real_close)(int) = fn;
	return real_close(fd);
}

static ssize_t kompofs_call_read(void *fn, int fd, void *buf, size_t n) {
	ssize_t (*real_read)(int, void *, size_t) = fn;
	return real_read(fd, buf, n);
}

static int kompofs_call_stat(void *fn, const char *path, struct stat *out) {
	int (*real_stat)(const char *, struct stat *) = fn;
	return real_stat(path, out);
}

static int kompofs_call_fstat(void *fn, int fd, struct stat *out) {
	int (*real_fstat)(int, struct stat *) = fn;
	return real_fstat(fd, out);
}

static int kompofs_call_chdir(void *fn, const char *path) {
	int (*real_chdir)(const char *) = fn;
	return real_chdir(path);
}

static char *kompofs_call_getcwd(void *fn, char *buf, size_t size) {
	char *(*real_getcwd)(char *, size_t) = fn;
	return real_getcwd(buf, size);
}

static char *kompofs_call_realpath(void *fn, const char *path, char *out) {
	char *(*real_realpath)(const char *, char *) = fn;
	return real_realpath(path, out);
}

static int kompofs_call_mkdir(void *fn, const char *path, int mode) {
	int (*real_mkdir)(const char *, int) = fn;
	return real_mkdir(path, mode);
}

static DIR *kompofs_call_opendir(void *fn, const char *path) {
	DIR *(*real_opendir)(const char *) = fn;
	return real_opendir(path);
}

static DIR *kompofs_call_fdopendir(void *fn, int fd) {
	DIR *(*real_fdopendir)(int) = fn;
	return real_fdopendir(fd);
}

static void kompofs_call_rewinddir(void *fn, DIR *d) {
	void (*real_rewinddir)(DIR *) = fn;
	real_rewinddir(d);
}

static int kompofs_call_closedir(void *fn, DIR *d) {
	int (*real_closedir)(DIR *) = fn;
	return real_closedir(d);
}

static struct dirent *kompofs_call_readdir(void *fn, DIR *d) {
	struct dirent *(*real_readdir)(DIR *) = fn;
	errno = 0;
	return real_readdir(d);
}
*/
import "C"

import (
	"syscall"
	"unsafe"

	"github.com/kompofs/kompofs/internal/abi"
)

// LibcRealOS forwards every RealOS call to the next dynamic-library symbol
// of the same name, resolved and cached by NextSymbol. This is the RealOS
// implementation wired into the process-wide Dispatcher by package kompofs
// at Init time; dispatch_test.go exercises the decision tree against a
// fake instead, since this one cannot run outside a real process image.
type LibcRealOS struct{}

func (LibcRealOS) Open(path string, flags int, mode uint32) (int, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	fd, errno := C.kompofs_call_open(NextSymbol("open"), cpath, C.int(flags), C.int(mode))
	if fd < 0 {
		return 0, errno
	}
	return int(fd), nil
}

func (LibcRealOS) Close(fd int) error {
	rc, errno := C.kompofs_call_close(NextSymbol("close"), C.int(fd))
	if rc < 0 {
		return errno
	}
	return nil
}

func (LibcRealOS) Read(fd int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, errno := C.kompofs_call_read(NextSymbol("read"), C.int(fd), unsafe.Pointer(&buf[0]), C.size_t(len(buf)))
	if n < 0 {
		return 0, errno
	}
	return int(n), nil
}

func (LibcRealOS) Stat(path string) (abi.StatInfo, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	var st C.struct_stat
	rc, errno := C.kompofs_call_stat(NextSymbol("stat"), cpath, &st)
	if rc < 0 {
		return abi.StatInfo{}, errno
	}
	return abi.StatInfo{Size: int64(st.st_size)}, nil
}

func (LibcRealOS) Fstat(fd int) (abi.StatInfo, error) {
	var st C.struct_stat
	rc, errno := C.kompofs_call_fstat(NextSymbol("fstat"), C.int(fd), &st)
	if rc < 0 {
		return abi.StatInfo{}, errno
	}
	return abi.StatInfo{Size: int64(st.st_size)}, nil
}

func (LibcRealOS) Chdir(path string) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	rc, errno := C.kompofs_call_chdir(NextSymbol("chdir"), cpath)
	if rc < 0 {
		return errno
	}
	return nil
}

func (LibcRealOS) Getcwd() (string, error) {
	buf := make([]byte, 4096)
	p, errno := C.kompofs_call_getcwd(NextSymbol("getcwd"), (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	if p == nil {
		return "", errno
	}
	return C.GoString(p), nil
}

func (LibcRealOS) Realpath(path string) (string, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	out := make([]byte, 4096)
	p, errno := C.kompofs_call_realpath(NextSymbol("realpath"), cpath, (*C.char)(unsafe.Pointer(&out[0])))
	if p == nil {
		return "", errno
	}
	return C.GoString(p), nil
}

func (LibcRealOS) Mkdir(path string, mode uint32) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	rc, errno := C.kompofs_call_mkdir(NextSymbol("mkdir"), cpath, C.int(mode))
	if rc < 0 {
		return errno
	}
	return nil
}

func (LibcRealOS) OpenDir(path string) (uintptr, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	d, errno := C.kompofs_call_opendir(NextSymbol("opendir"), cpath)
	if d == nil {
		return 0, errno
	}
	return uintptr(unsafe.Pointer(d)), nil
}

func (LibcRealOS) FdOpenDir(fd int) (uintptr, error) {
	d, errno := C.kompofs_call_fdopendir(NextSymbol("fdopendir"), C.int(fd))
	if d == nil {
		return 0, errno
	}
	return uintptr(unsafe.Pointer(d)), nil
}

// ReadDir forwards via the real readdir(3); its platform-specific dirent
// layout is handled entirely in C (struct dirent is the host's own),
// exposing only the OS-agnostic (name, ino, type, eof) tuple RealOS needs.
func (LibcRealOS) ReadDir(handle uintptr) (string, uint64, uint8, bool, error) {
	ent, errno := C.kompofs_call_readdir(NextSymbol("readdir"), (*C.DIR)(unsafe.Pointer(handle)))
	if ent == nil {
		// The trampoline zeroes errno before calling readdir(3); a NULL
		// return with errno still 0 means end-of-stream, not failure.
		if e, ok := errno.(syscall.Errno); !ok || e != 0 {
			return "", 0, 0, false, errno
		}
		return "", 0, 0, true, nil
	}
	name := C.GoString(&ent.d_name[0])
	return name, uint64(ent.d_ino), uint8(ent.d_type), false, nil
}

func (LibcRealOS) RewindDir(handle uintptr) {
	C.kompofs_call_rewinddir(NextSymbol("rewinddir"), (*C.DIR)(unsafe.Pointer(handle)))
}

func (LibcRealOS) CloseDir(handle uintptr) error {
	rc, errno := C.kompofs_call_closedir(NextSymbol("closedir"), (*C.DIR)(unsafe.Pointer(handle)))
	if rc < 0 {
		return errno
	}
	return nil
}
