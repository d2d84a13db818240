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

// This file is the actual interposition surface: every non-static C
// function defined in the preamble below becomes a global symbol in the
// .so this package builds into, shadowing libc's own definition for any
// process that links this library ahead of libc in its search order. Each
// one does only the C-side argument wrangling cgo can't express directly
// (variadic mode_t extraction, errno plumbing) and immediately hands off
// to an exported Go function, which in turn asks internal/dispatch.Dispatcher
// to make the routing decision.
//
// cgo cannot //export a function named e.g. "open" itself (the real libc
// prototype is variadic; a Go func value can't be variadic in the C sense),
// so each libc-named C wrapper below calls a same-shaped, differently-named
// Go export (kompofs_go_open, ...) instead.
package main

/*
#include <dirent.h>
#include <errno.h>
#include <fcntl.h>
#include <stdarg.h>
#include <stdlib.h>
#include <string.h>
#include <sys/mman.h>
#include <sys/stat.h>
#include <unistd.h>

extern int kompofs_go_open(const char *path, int oflag, mode_t mode);
extern int kompofs_go_openat(int dirfd, const char *path, int oflag, mode_t mode);
extern int kompofs_go_close(int fd);
extern ssize_t kompofs_go_read(int fd, void *buf, size_t count);
extern void *kompofs_go_mmap(void *addr, size_t length, int prot, int flags, int fd, off_t offset);
extern int kompofs_go_stat(const char *path, struct stat *out);
extern int kompofs_go_lstat(const char *path, struct stat *out);
extern int kompofs_go_fstatat(int dirfd, const char *path, struct stat *out, int flags);
extern int kompofs_go_fstat(int fd, struct stat *out);
extern char *kompofs_go_getcwd(char *buf, size_t size);
extern int kompofs_go_chdir(const char *path);
extern char *kompofs_go_realpath(const char *path, char *resolved);
extern int kompofs_go_mkdir(const char *path, mode_t mode);
extern int kompofs_go_access(const char *path, int mode);
extern int kompofs_go_faccessat(int dirfd, const char *path, int mode, int flags);
extern ssize_t kompofs_go_readlink(const char *path, char *buf, size_t bufsiz);
extern DIR *kompofs_go_opendir(const char *path);
extern DIR *kompofs_go_fdopendir(int fd);
extern struct dirent *kompofs_go_readdir(DIR *dirp);
extern void kompofs_go_rewinddir(DIR *dirp);
extern int kompofs_go_closedir(DIR *dirp);

static mode_t kompofs_va_mode(int oflag, va_list ap) {
	if (oflag & O_CREAT) {
		return (mode_t)va_arg(ap, int);
	}
	return 0;
}

int open(const char *path, int oflag, ...) {
	va_list ap;
	va_start(ap, oflag);
	mode_t mode = kompofs_va_mode(oflag, ap);
	va_end(ap);
	return kompofs_go_open(path, oflag, mode);
}

int openat(int dirfd, const char *path, int oflag, ...) {
	va_list ap;
	va_start(ap, oflag);
	mode_t mode = kompofs_va_mode(oflag, ap);
	va_end(ap);
	return kompofs_go_openat(dirfd, path, oflag, mode);
}

int close(int fd) { return kompofs_go_close(fd); }

ssize_t read(int fd, void *buf, size_t count) { return kompofs_go_read(fd, buf, count); }

void *mmap(void *addr, size_t length, int prot, int flags, int fd, off_t offset) {
	return kompofs_go_mmap(addr, length, prot, flags, fd, offset);
}

int stat(const char *path, struct stat *out) { return kompofs_go_stat(path, out); }

int lstat(const char *path, struct stat *out) { return kompofs_go_lstat(path, out); }

int fstatat(int dirfd, const char *path, struct stat *out, int flags) {
	return kompofs_go_fstatat(dirfd, path, out, flags);
}

int fstat(int fd, struct stat *out) { return kompofs_go_fstat(fd, out); }

char *getcwd(char *buf, size_t size) { return kompofs_go_getcwd(buf, size); }

int chdir(const char *path) { return kompofs_go_chdir(path); }

char *realpath(const char *path, char *resolved) { return kompofs_go_realpath(path, resolved); }

int mkdir(const char *path, mode_t mode) { return kompofs_go_mkdir(path, mode); }

int access(const char *path, int mode) { return kompofs_go_access(path, mode); }

int faccessat(int dirfd, const char *path, int mode, int flags) {
	return kompofs_go_faccessat(dirfd, path, mode, flags);
}

ssize_t readlink(const char *path, char *buf, size_t bufsiz) {
	return kompofs_go_readlink(path, buf, bufsiz);
}

DIR *opendir(const char *path) { return kompofs_go_opendir(path); }

DIR *fdopendir(int fd) { return kompofs_go_fdopendir(fd); }

struct dirent *readdir(DIR *dirp) { return kompofs_go_readdir(dirp); }

void rewinddir(DIR *dirp) { kompofs_go_rewinddir(dirp); }

int closedir(DIR *dirp) { return kompofs_go_closedir(dirp); }

static void kompofs_set_errno(int e) { errno = e; }

static struct dirent *kompofs_alloc_dirent(const char *name, ino_t ino, unsigned char type) {
	struct dirent *d = calloc(1, sizeof(struct dirent));
	if (d == NULL) {
		return NULL;
	}
	d->d_ino = ino;
	d->d_type = type;
	strncpy(d->d_name, name, sizeof(d->d_name) - 1);
	return d;
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/dispatch"
	"github.com/kompofs/kompofs/internal/registry"
	"golang.org/x/sys/unix"
)

const atFDCWD = -100 // AT_FDCWD, POSIX-stable across Linux and Darwin.

func setErrno(e dispatch.Errno) {
	C.kompofs_set_errno(C.int(e.Unix()))
}

func isAbs(path *C.char) bool {
	return path != nil && *path == '/'
}

// mapFailed is MAP_FAILED's bit pattern, (void *)-1: all address bits set,
// identical on every architecture KOMPOFS supports. Computed in Go rather
// than round-tripping through a C helper so it is directly comparable with
// mmap's unsafe.Pointer return value regardless of which file's cgo
// preamble produced it (cgo preambles are not shared across files in the
// same package).
func mapFailed() unsafe.Pointer {
	return unsafe.Pointer(^uintptr(0))
}

//export kompofs_go_open
func kompofs_go_open(path *C.char, oflag C.int, mode C.mode_t) C.int {
	d := inst()
	if d == nil {
		return realOpen(path, oflag, mode)
	}
	fd, errno, real := d.Dispatcher.Open(C.GoString(path), int(oflag), uint32(mode))
	if real {
		return realOpen(path, oflag, mode)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return C.int(fd)
}

//export kompofs_go_openat
func kompofs_go_openat(dirfd C.int, path *C.char, oflag C.int, mode C.mode_t) C.int {
	d := inst()
	if d == nil || (dirfd != atFDCWD && !isAbs(path)) {
		return realOpenAt(dirfd, path, oflag, mode)
	}
	fd, errno, real := d.Dispatcher.Open(C.GoString(path), int(oflag), uint32(mode))
	if real {
		return realOpenAt(dirfd, path, oflag, mode)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return C.int(fd)
}

//export kompofs_go_close
func kompofs_go_close(fd C.int) C.int {
	d := inst()
	if d != nil {
		d.Dispatcher.Close(int(fd))
	}
	// close always closes the real fd regardless of whether it was virtual
	// (every registered fd is itself a real duplicated fd).
	return realClose(fd)
}

//export kompofs_go_read
func kompofs_go_read(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {
	d := inst()
	if d == nil {
		return realRead(fd, buf, count)
	}
	goBuf := unsafe.Slice((*byte)(buf), int(count))
	n, errno, real := d.Dispatcher.Read(int(fd), goBuf)
	if real {
		return realRead(fd, buf, count)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return C.ssize_t(n)
}

//export kompofs_go_mmap
func kompofs_go_mmap(addr unsafe.Pointer, length C.size_t, prot, flags, fd C.int, offset C.off_t) unsafe.Pointer {
	d := inst()
	if d == nil || fd < 0 {
		return realMmap(addr, length, prot, flags, fd, offset)
	}
	content, errno, virtual := d.Dispatcher.Mmap(int(fd))
	if !virtual {
		return realMmap(addr, length, prot, flags, fd, offset)
	}
	if errno != 0 {
		setErrno(errno)
		return mapFailed()
	}
	mm := realMmapAnon(length)
	if mm == mapFailed() {
		return mm
	}
	n := int(length)
	if n > len(content) {
		n = len(content)
	}
	if n > 0 {
		dst := unsafe.Slice((*byte)(mm), n)
		copy(dst, content[:n])
	}
	return mm
}

//export kompofs_go_stat
func kompofs_go_stat(path *C.char, out *C.struct_stat) C.int {
	return doStat(path, out, func(d *dispatch.Dispatcher, p string, hasOut bool) (abi.StatInfo, dispatch.Errno, bool) {
		return d.Stat(p, hasOut)
	}, realStat)
}

//export kompofs_go_lstat
func kompofs_go_lstat(path *C.char, out *C.struct_stat) C.int {
	// lstat aliases stat: there are no symlinks inside the bundle.
	return doStat(path, out, func(d *dispatch.Dispatcher, p string, hasOut bool) (abi.StatInfo, dispatch.Errno, bool) {
		return d.Stat(p, hasOut)
	}, realLstat)
}

//export kompofs_go_fstatat
func kompofs_go_fstatat(dirfd C.int, path *C.char, out *C.struct_stat, flags C.int) C.int {
	if dirfd != atFDCWD && !isAbs(path) {
		return realFstatat(dirfd, path, out, flags)
	}
	return doStat(path, out, func(d *dispatch.Dispatcher, p string, hasOut bool) (abi.StatInfo, dispatch.Errno, bool) {
		return d.Stat(p, hasOut)
	}, func(path *C.char, out *C.struct_stat) C.int {
		return realFstatat(dirfd, path, out, flags)
	})
}

func doStat(path *C.char, out *C.struct_stat, call func(*dispatch.Dispatcher, string, bool) (abi.StatInfo, dispatch.Errno, bool), fallback func(*C.char, *C.struct_stat) C.int) C.int {
	d := inst()
	if d == nil {
		return fallback(path, out)
	}
	info, errno, real := call(d.Dispatcher, C.GoString(path), out != nil)
	if real {
		return fallback(path, out)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	st := abi.Populate(info)
	*(*unix.Stat_t)(unsafe.Pointer(out)) = st
	return 0
}

//export kompofs_go_fstat
func kompofs_go_fstat(fd C.int, out *C.struct_stat) C.int {
	d := inst()
	if d == nil {
		return realFstat(fd, out)
	}
	info, errno, real := d.Dispatcher.Fstat(int(fd), out != nil)
	if real {
		return realFstat(fd, out)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	st := abi.Populate(info)
	*(*unix.Stat_t)(unsafe.Pointer(out)) = st
	return 0
}

//export kompofs_go_access
func kompofs_go_access(path *C.char, mode C.int) C.int {
	d := inst()
	if d == nil {
		return realAccess(path, mode)
	}
	errno, real := d.Dispatcher.Access(C.GoString(path))
	if real {
		return realAccess(path, mode)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return 0
}

//export kompofs_go_faccessat
func kompofs_go_faccessat(dirfd C.int, path *C.char, mode, flags C.int) C.int {
	d := inst()
	if d == nil || (dirfd != atFDCWD && !isAbs(path)) {
		return realFaccessat(dirfd, path, mode, flags)
	}
	errno, real := d.Dispatcher.Access(C.GoString(path))
	if real {
		return realFaccessat(dirfd, path, mode, flags)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return 0
}

//export kompofs_go_readlink
func kompofs_go_readlink(path *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t {
	d := inst()
	if d == nil {
		return realReadlink(path, buf, bufsiz)
	}
	errno, real := d.Dispatcher.Readlink(C.GoString(path))
	if real {
		return realReadlink(path, buf, bufsiz)
	}
	setErrno(errno)
	return -1
}

//export kompofs_go_getcwd
func kompofs_go_getcwd(buf *C.char, size C.size_t) *C.char {
	d := inst()
	if d == nil || buf != nil || size != 0 {
		// Only buf==nil,size==0 is emulated; every other shape forwards,
		// a deliberate scope cut rather than risking glibc's
		// ERANGE/truncation semantics.
		return realGetcwd(buf, size)
	}
	dir, ok := d.Dispatcher.Getcwd()
	if !ok {
		return realGetcwd(buf, size)
	}
	return C.CString(dir)
}

//export kompofs_go_chdir
func kompofs_go_chdir(path *C.char) C.int {
	d := inst()
	if d == nil {
		return realChdir(path)
	}
	errno, handled := d.Dispatcher.Chdir(C.GoString(path))
	if !handled {
		rc := realChdir(path)
		if rc == 0 {
			d.Dispatcher.ClearWorkingDir()
		}
		return rc
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return 0
}

//export kompofs_go_realpath
func kompofs_go_realpath(path *C.char, resolved *C.char) *C.char {
	d := inst()
	if d == nil {
		return realRealpath(path, resolved)
	}
	canon, virtual := d.Dispatcher.Realpath(C.GoString(path))
	if !virtual {
		return realRealpath(path, resolved)
	}
	if resolved == nil {
		return C.CString(canon)
	}
	src := C.CString(canon)
	defer C.free(unsafe.Pointer(src))
	C.strncpy(resolved, src, 4095)
	return resolved
}

//export kompofs_go_mkdir
func kompofs_go_mkdir(path *C.char, mode C.mode_t) C.int {
	d := inst()
	if d == nil {
		return realMkdir(path, mode)
	}
	errno, virtual := d.Dispatcher.Mkdir(C.GoString(path))
	if !virtual {
		return realMkdir(path, mode)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return 0
}

//export kompofs_go_opendir
func kompofs_go_opendir(path *C.char) *C.DIR {
	d := inst()
	if d == nil {
		return realOpendir(path)
	}
	s, errno, real := d.Dispatcher.OpenDir(C.GoString(path))
	if real {
		return realOpendir(path)
	}
	if errno != 0 {
		setErrno(errno)
		return nil
	}
	return streamToDIR(s)
}

//export kompofs_go_fdopendir
func kompofs_go_fdopendir(fd C.int) *C.DIR {
	d := inst()
	if d == nil {
		return realFdopendir(fd)
	}
	s, errno, real := d.Dispatcher.FdOpenDir(int(fd))
	if real {
		return realFdopendir(fd)
	}
	if errno != 0 {
		setErrno(errno)
		return nil
	}
	return streamToDIR(s)
}

//export kompofs_go_readdir
func kompofs_go_readdir(dirp *C.DIR) *C.struct_dirent {
	d := inst()
	s, ok := streamOf(dirp)
	if d == nil || !ok {
		return realReaddir(dirp)
	}
	entry, eof, errno := d.Dispatcher.ReadDir(s)
	if errno != 0 {
		setErrno(errno)
		return nil
	}
	if eof {
		return nil
	}
	cname := C.CString(entry.Name)
	defer C.free(unsafe.Pointer(cname))
	return C.kompofs_alloc_dirent(cname, C.ino_t(entry.Inode), C.uchar(entry.Type))
}

//export kompofs_go_rewinddir
func kompofs_go_rewinddir(dirp *C.DIR) {
	d := inst()
	s, ok := streamOf(dirp)
	if d == nil || !ok {
		realRewinddir(dirp)
		return
	}
	d.Dispatcher.RewindDir(s)
}

//export kompofs_go_closedir
func kompofs_go_closedir(dirp *C.DIR) C.int {
	d := inst()
	s, ok := streamOf(dirp)
	if d != nil && ok {
		d.Dispatcher.CloseDir(s)
		fd := s.FD
		forgetStream(dirp)
		// dirp is our own malloc'd one-byte block, not a real DIR*; closing
		// the underlying dup'd descriptor directly is the only way to give
		// it back, and handing the freed block to libc's closedir would be
		// undefined behavior.
		return realClose(C.int(fd))
	}
	return realClosedir(dirp)
}

// dirStreams maps the opaque *C.DIR pointer handed to the caller back to
// the registry.Stream it was allocated for. KOMPOFS hands out a real
// malloc'd one-byte block so pointer identity the host may rely on stays
// valid, and keeps the Go-side Stream in this side table keyed by that
// address. Guarded by its own mutex since opendir/readdir/closedir can
// arrive from different OS threads concurrently (the embedding host is
// free to run libc calls from any thread it likes).
var (
	dirStreamsMu sync.Mutex
	dirStreams   = map[uintptr]*registry.Stream{}
)

func streamToDIR(s *registry.Stream) *C.DIR {
	// A DIR* must be a distinct, stable heap address; allocate one byte of
	// C memory rather than reusing a Go pointer, which the Go runtime's
	// moving GC could relocate.
	p := C.malloc(1)
	dirStreamsMu.Lock()
	dirStreams[uintptr(p)] = s
	dirStreamsMu.Unlock()
	return (*C.DIR)(p)
}

func streamOf(dirp *C.DIR) (*registry.Stream, bool) {
	if dirp == nil {
		return nil, false
	}
	dirStreamsMu.Lock()
	defer dirStreamsMu.Unlock()
	s, ok := dirStreams[uintptr(unsafe.Pointer(dirp))]
	return s, ok
}

func forgetStream(dirp *C.DIR) {
	addr := uintptr(unsafe.Pointer(dirp))
	dirStreamsMu.Lock()
	delete(dirStreams, addr)
	dirStreamsMu.Unlock()
	C.free(unsafe.Pointer(dirp))
}
