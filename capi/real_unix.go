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

// The "real" half of every interposed call in posix_unix.go: a thin C
// trampoline per signature that casts dispatch.NextSymbol's resolved
// address to the right function-pointer type and calls through it. Kept
// byte-for-byte passthrough; these never touch the struct/out-buffer
// contents, unlike internal/dispatch.LibcRealOS, which narrows results to
// the OS-agnostic RealOS interface for dispatch_test.go's benefit. This
// file is the one that actually has to preserve the host ABI exactly.
package main

/*
#include <dirent.h>
#include <fcntl.h>
#include <stdarg.h>
#include <stdlib.h>
#include <sys/mman.h>
#include <sys/stat.h>
#include <unistd.h>

#ifndef MAP_ANONYMOUS
#define MAP_ANONYMOUS MAP_ANON
#endif

static int kompofs_real_open(void *fn, const char *path, int oflag, mode_t mode) {
	int (*f)(const char *, int, ...) = fn;
	return f(path, oflag, mode);
}

static int kompofs_real_openat(void *fn, int dirfd, const char *path, int oflag, mode_t mode) {
	int (*f)(int, const char *, int, ...) = fn;
	return f(dirfd, path, oflag, mode);
}

static int kompofs_real_close(void *fn, int fd) {
	int (*f)(int) = fn;
	return f(fd);
}

static ssize_t kompofs_real_read(void *fn, int fd, void *buf, size_t n) {
	ssize_t (*f)(int, void *, size_t) = fn;
	return f(fd, buf, n);
}

static void *kompofs_real_mmap(void *fn, void *addr, size_t length, int prot, int flags, int fd, off_t offset) {
	void *(*f)(void *, size_t, int, int, int, off_t) = fn;
	return f(addr, length, prot, flags, fd, offset);
}

static int kompofs_real_stat(void *fn, const char *path, struct stat *out) {
	int (*f)(const char *, struct stat *) = fn;
	return f(path, out);
}

static int kompofs_real_fstatat(void *fn, int dirfd, const char *path, struct stat *out, int flags) {
	int (*f)(int, const char *, struct stat *, int) = fn;
	return f(dirfd, path, out, flags);
}

static int kompofs_real_fstat(void *fn, int fd, struct stat *out) {
	int (*f)(int, struct stat *) = fn;
	return f(fd, out);
}

static int kompofs_real_access(void *fn, const char *path, int mode) {
	int (*f)(const char *, int) = fn;
	return f(path, mode);
}

static int kompofs_real_faccessat(void *fn, int dirfd, const char *path, int mode, int flags) {
	int (*f)(int, const char *, int, int) = fn;
	return f(dirfd, path, mode, flags);
}

static ssize_t kompofs_real_readlink(void *fn, const char *path, char *buf, size_t bufsiz) {
	ssize_t (*f)(const char *, char *, size_t) = fn;
	return f(path, buf, bufsiz);
}

static char *kompofs_real_getcwd(void *fn, char *buf, size_t size) {
	char *(*f)(char *, size_t) = fn;
	return f(buf, size);
}

static int kompofs_real_chdir(void *fn, const char *path) {
	int (*f)(const char *) = fn;
	return f(path);
}

static char *kompofs_real_realpath(void *fn, const char *path, char *resolved) {
	char *(*f)(const char *, char *) = fn;
	return f(path, resolved);
}

static int kompofs_real_mkdir(void *fn, const char *path, mode_t mode) {
	int (*f)(const char *, mode_t) = fn;
	return f(path, mode);
}

static DIR *kompofs_real_opendir(void *fn, const char *path) {
	DIR *(*f)(const char *) = fn;
	return f(path);
}

static DIR *kompofs_real_fdopendir(void *fn, int fd) {
	DIR *(*f)(int) = fn;
	return f(fd);
}

static struct dirent *kompofs_real_readdir(void *fn, DIR *d) {
	struct dirent *(*f)(DIR *) = fn;
	return f(d);
}

static void kompofs_real_rewinddir(void *fn, DIR *d) {
	void (*f)(DIR *) = fn;
	f(d);
}

static int kompofs_real_closedir(void *fn, DIR *d) {
	int (*f)(DIR *) = fn;
	return f(d);
}
*/
import "C"

import (
	"unsafe"

	"github.com/kompofs/kompofs/internal/dispatch"
)

func realOpen(path *C.char, oflag C.int, mode C.mode_t) C.int {
	return C.kompofs_real_open(dispatch.NextSymbol("open"), path, oflag, mode)
}

func realOpenAt(dirfd C.int, path *C.char, oflag C.int, mode C.mode_t) C.int {
	return C.kompofs_real_openat(dispatch.NextSymbol("openat"), dirfd, path, oflag, mode)
}

func realClose(fd C.int) C.int {
	return C.kompofs_real_close(dispatch.NextSymbol("close"), fd)
}

func realRead(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {
	return C.kompofs_real_read(dispatch.NextSymbol("read"), fd, buf, count)
}

func realMmap(addr unsafe.Pointer, length C.size_t, prot, flags, fd C.int, offset C.off_t) unsafe.Pointer {
	return C.kompofs_real_mmap(dispatch.NextSymbol("mmap"), addr, length, prot, flags, fd, offset)
}

func realMmapAnon(length C.size_t) unsafe.Pointer {
	return C.kompofs_real_mmap(dispatch.NextSymbol("mmap"), nil, length, C.int(C.PROT_READ|C.PROT_WRITE), C.int(C.MAP_ANONYMOUS|C.MAP_PRIVATE), C.int(-1), C.off_t(0))
}

func realStat(path *C.char, out *C.struct_stat) C.int {
	return C.kompofs_real_stat(dispatch.NextSymbol("stat"), path, out)
}

func realLstat(path *C.char, out *C.struct_stat) C.int {
	return C.kompofs_real_stat(dispatch.NextSymbol("lstat"), path, out)
}

func realFstatat(dirfd C.int, path *C.char, out *C.struct_stat, flags C.int) C.int {
	return C.kompofs_real_fstatat(dispatch.NextSymbol("fstatat"), dirfd, path, out, flags)
}

func realFstat(fd C.int, out *C.struct_stat) C.int {
	return C.kompofs_real_fstat(dispatch.NextSymbol("fstat"), fd, out)
}

func realAccess(path *C.char, mode C.int) C.int {
	return C.kompofs_real_access(dispatch.NextSymbol("access"), path, mode)
}

func realFaccessat(dirfd C.int, path *C.char, mode, flags C.int) C.int {
	return C.kompofs_real_faccessat(dispatch.NextSymbol("faccessat"), dirfd, path, mode, flags)
}

func realReadlink(path *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t {
	return C.kompofs_real_readlink(dispatch.NextSymbol("readlink"), path, buf, bufsiz)
}

func realGetcwd(buf *C.char, size C.size_t) *C.char {
	return C.kompofs_real_getcwd(dispatch.NextSymbol("getcwd"), buf, size)
}

func realChdir(path *C.char) C.int {
	return C.kompofs_real_chdir(dispatch.NextSymbol("chdir"), path)
}

func realRealpath(path *C.char, resolved *C.char) *C.char {
	return C.kompofs_real_realpath(dispatch.NextSymbol("realpath"), path, resolved)
}

func realMkdir(path *C.char, mode C.mode_t) C.int {
	return C.kompofs_real_mkdir(dispatch.NextSymbol("mkdir"), path, mode)
}

func realOpendir(path *C.char) *C.DIR {
	return C.kompofs_real_opendir(dispatch.NextSymbol("opendir"), path)
}

func realFdopendir(fd C.int) *C.DIR {
	return C.kompofs_real_fdopendir(dispatch.NextSymbol("fdopendir"), fd)
}

func realReaddir(dirp *C.DIR) *C.struct_dirent {
	return C.kompofs_real_readdir(dispatch.NextSymbol("readdir"), dirp)
}

func realRewinddir(dirp *C.DIR) {
	C.kompofs_real_rewinddir(dispatch.NextSymbol("rewinddir"), dirp)
}

func realClosedir(dirp *C.DIR) C.int {
	return C.kompofs_real_closedir(dispatch.NextSymbol("closedir"), dirp)
}
