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

// Package dispatch implements the Syscall Dispatcher: for every intercepted
// call, it decides whether the call belongs to the virtual domain
// (bundle-backed) or should be forwarded to the real OS via the next
// dynamic-library symbol, and translates results to POSIX return/errno
// conventions.
//
// The decision tree in this file is cgo-free and testable in isolation: it
// drives the internal/registry, internal/trie and internal/pathvfs state
// machines against a RealOS interface. The cgo parts of this package are
// next-symbol resolution (nextsym_unix.go) and the libc-backed RealOS
// (realos_unix.go). The cgo export surface lives one layer up, in the capi
// package, which is package main and therefore untestable with `go test`.
package dispatch

import (
	"context"
	"strings"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/logger"
	"github.com/kompofs/kompofs/internal/metrics"
	"github.com/kompofs/kompofs/internal/pathvfs"
	"github.com/kompofs/kompofs/internal/registry"
	"github.com/kompofs/kompofs/internal/trie"
	"golang.org/x/sys/unix"
)

// O_* flags relevant to routing decisions. O_DIRECTORY and O_CREAT come
// from golang.org/x/sys/unix, since their values differ between Linux
// architectures and Darwin. OTmpfile is Linux's O_TMPFILE bit pattern
// (__O_TMPFILE | O_DIRECTORY); Darwin has no O_TMPFILE, and the same
// pattern is tested there.
const (
	ODirectory = unix.O_DIRECTORY
	OCreat     = unix.O_CREAT
	OTmpfile   = 020000000 | ODirectory
)

// RealOS is the "next symbol" forwarding surface: the dynamic-linker
// resolution of the same-named real function, invoking the same-named
// function from the next library in the dynamic-linker search order.
// LibcRealOS (realos_unix.go) implements this over cgo, calling through the
// addresses nextsym_unix.go resolves with dlsym(RTLD_NEXT, ...).
type RealOS interface {
	Open(path string, flags int, mode uint32) (fd int, err error)
	Close(fd int) error
	Read(fd int, buf []byte) (int, error)
	Stat(path string) (abi.StatInfo, error)
	Fstat(fd int) (abi.StatInfo, error)
	Chdir(path string) error
	Getcwd() (string, error)
	Realpath(path string) (string, error)
	Mkdir(path string, mode uint32) error
	OpenDir(path string) (handle uintptr, err error)
	FdOpenDir(fd int) (handle uintptr, err error)
	ReadDir(handle uintptr) (name string, ino uint64, kind uint8, eof bool, err error)
	RewindDir(handle uintptr)
	CloseDir(handle uintptr) error
}

// Dispatcher holds every piece of process-wide state the decision tree
// consults.
type Dispatcher struct {
	trie    *trie.Trie
	reg     *registry.Registry
	wd      *pathvfs.WorkingDir
	root    string // the virtual-root prefix
	real    RealOS
	dev     uint64
	blksize int64

	// warnOnMkdirReuse logs (rather than silently returns 0) when mkdir
	// targets an already-existing virtual directory — see DESIGN.md's
	// "mkdir on an existing virtual directory" open-question decision.
	warnOnMkdirReuse bool
}

// New constructs a Dispatcher. root is the virtual-root prefix below which
// paths are routed to the virtual store.
func New(t *trie.Trie, reg *registry.Registry, wd *pathvfs.WorkingDir, root string, real RealOS, dev uint64, blksize int64) *Dispatcher {
	return &Dispatcher{
		trie: t, reg: reg, wd: wd, root: root, real: real,
		dev: dev, blksize: blksize, warnOnMkdirReuse: true,
	}
}

// isUnderRoot reports whether an already-resolved absolute path lies under
// the virtual-root prefix.
func (d *Dispatcher) isUnderRoot(absPath string) bool {
	if d.root == "" {
		return false
	}
	if absPath == d.root {
		return true
	}
	return strings.HasPrefix(absPath, strings.TrimRight(d.root, "/")+"/")
}

// resolve decides whether the call is virtual, and if so returns the
// canonicalized absolute path's trie segments.
//
//	virtual == true -> segments is authoritative, use the store.
//	virtual == false -> fall through to the real OS with the original path.
func (d *Dispatcher) resolve(path string) (segments []string, virtual bool) {
	var abs string
	if strings.HasPrefix(path, "/") {
		// Still needs lexical "." / ".." resolution: an absolute path is not
		// already canonical just because it has no working directory to
		// resolve against.
		abs = pathvfs.Canonicalize("", path)
	} else if wd, ok := d.wd.Get(); ok {
		abs = pathvfs.Canonicalize(wd, path)
	} else {
		// No virtual working directory: a relative path can never be
		// virtual without one.
		return nil, false
	}
	if !d.isUnderRoot(abs) {
		return nil, false
	}
	return pathvfs.Segments(abs), true
}

func record(name string, virtual bool) {
	route := metrics.RouteReal
	if virtual {
		route = metrics.RouteVirtual
	}
	metrics.RecordPrometheus(name, route)
	metrics.RecordCall(context.Background(), name, route)
	logger.Tracef("dispatch: %s route=%s", name, route)
}

// Open implements the open/openat row.
func (d *Dispatcher) Open(path string, flags int, mode uint32) (fd int, errno Errno, real bool) {
	segments, virtual := d.resolve(path)
	record("open", virtual)
	if !virtual {
		return 0, 0, true
	}
	if flags&OCreat != 0 || flags&OTmpfile == OTmpfile {
		// O_CREAT/O_TMPFILE are always forwarded.
		return 0, 0, true
	}

	ft, ok := d.trie.Classify(segments)
	if !ok {
		return 0, ENoent, false
	}
	if flags&ODirectory != 0 && !ft.IsDir {
		return 0, ENotDir, false
	}

	got, ok, err := d.reg.Open(segments)
	if err != nil {
		logger.Errorf("dispatch: open real-fd allocation failed: %v", err)
		return 0, ENoent, false
	}
	if !ok {
		return 0, ENoent, false
	}
	return got, 0, false
}

// Close implements the close row: if virtual, release from the registry;
// the real fd is always closed afterward regardless (every registered fd is
// itself a real fd — see internal/registry.Close's doc).
func (d *Dispatcher) Close(fd int) {
	if d.reg.IsVirtualFD(fd) {
		record("close", true)
		d.reg.Close(fd)
	} else {
		record("close", false)
	}
}

// Read implements the read row.
func (d *Dispatcher) Read(fd int, buf []byte) (n int, errno Errno, real bool) {
	if !d.reg.IsVirtualFD(fd) {
		record("read", false)
		return 0, 0, true
	}
	record("read", true)
	n, err := d.reg.Read(fd, buf)
	if err != nil {
		return 0, ENoent, false
	}
	return n, 0, false
}

// Stat implements the stat/lstat/fstatat row. lstat aliases stat: symlink
// resolution inside the bundle is out of scope, so there is no distinction
// to make.
func (d *Dispatcher) Stat(path string, hasOut bool) (info abi.StatInfo, errno Errno, real bool) {
	segments, virtual := d.resolve(path)
	record("stat", virtual)
	if !virtual {
		return abi.StatInfo{}, 0, true
	}
	if !hasOut {
		return abi.StatInfo{}, EFault, false
	}
	ft, ok := d.trie.Classify(segments)
	if !ok {
		return abi.StatInfo{}, ENoent, false
	}
	return d.trie.StatOf(ft, d.dev, d.blksize), 0, false
}

// Fstat implements the fstat row.
func (d *Dispatcher) Fstat(fd int, hasOut bool) (info abi.StatInfo, errno Errno, real bool) {
	if !d.reg.IsVirtualFD(fd) {
		record("fstat", false)
		return abi.StatInfo{}, 0, true
	}
	record("fstat", true)
	if !hasOut {
		return abi.StatInfo{}, EFault, false
	}
	info, err := d.reg.Fstat(fd)
	if err != nil {
		return abi.StatInfo{}, ENoent, false
	}
	return info, 0, false
}

// Access implements the faccessat/access row: an existence-only check
// against the trie, honoring no mode bits (the trie has no
// writable/executable distinction to honor).
func (d *Dispatcher) Access(path string) (errno Errno, real bool) {
	segments, virtual := d.resolve(path)
	record("access", virtual)
	if !virtual {
		return 0, true
	}
	if _, ok := d.trie.Classify(segments); !ok {
		return ENoent, false
	}
	return 0, false
}

// Readlink implements the readlink row: any virtual path always fails
// EINVAL (it is never a symlink), rather than silently forwarding to
// whatever unrelated real file happens to share the path.
func (d *Dispatcher) Readlink(path string) (errno Errno, real bool) {
	_, virtual := d.resolve(path)
	record("readlink", virtual)
	if !virtual {
		return 0, true
	}
	return EInval, false
}

// OpenDir implements the opendir row.
func (d *Dispatcher) OpenDir(path string) (s *registry.Stream, errno Errno, real bool) {
	segments, virtual := d.resolve(path)
	record("opendir", virtual)
	if !virtual {
		return nil, 0, true
	}
	s, err := d.reg.OpenDir(segments)
	if err != nil {
		return nil, ENoent, false
	}
	return s, 0, false
}

// FdOpenDir implements the fdopendir row.
func (d *Dispatcher) FdOpenDir(fd int) (s *registry.Stream, errno Errno, real bool) {
	if !d.reg.IsVirtualFD(fd) {
		record("fdopendir", false)
		return nil, 0, true
	}
	record("fdopendir", true)
	s, err := d.reg.FdOpenDir(fd)
	if err != nil {
		return nil, ENoent, false
	}
	return s, 0, false
}

// ReadDir implements the readdir row.
func (d *Dispatcher) ReadDir(s *registry.Stream) (entry registry.Dirent, eof bool, errno Errno) {
	record("readdir", true)
	e, ok, err := d.reg.ReadDir(s)
	if err != nil {
		return registry.Dirent{}, false, ENoent
	}
	if !ok {
		return registry.Dirent{}, true, 0
	}
	return e, false, 0
}

// RewindDir implements the rewinddir row.
func (d *Dispatcher) RewindDir(s *registry.Stream) {
	record("rewinddir", true)
	d.reg.RewindDir(s)
}

// CloseDir implements the closedir row.
func (d *Dispatcher) CloseDir(s *registry.Stream) {
	record("closedir", true)
	d.reg.CloseDir(s)
}

// Getcwd implements the getcwd row: only the buf==nil,size==0
// allocate-and-return shape is emulated. Other shapes are the caller's
// (capi's) job to forward to the real getcwd, since this function can only
// be reached once the caller has already decided to go virtual.
func (d *Dispatcher) Getcwd() (dir string, ok bool) {
	dir, ok = d.wd.Get()
	record("getcwd", ok)
	return dir, ok
}

// Chdir implements the chdir row: resolve the new path; if it is a virtual
// directory, update the working-dir state and succeed; otherwise the caller
// forwards to the real chdir and, on success, calls ClearWorkingDir.
func (d *Dispatcher) Chdir(path string) (errno Errno, handledVirtual bool) {
	segments, virtual := d.resolve(path)
	if !virtual {
		record("chdir", false)
		return 0, false
	}
	ft, ok := d.trie.Classify(segments)
	if !ok || !ft.IsDir {
		record("chdir", false)
		return 0, false
	}
	record("chdir", true)
	d.wd.Set("/" + strings.Join(segments, "/"))
	return 0, true
}

// ClearWorkingDir is called by the caller after a successful real chdir.
func (d *Dispatcher) ClearWorkingDir() {
	d.wd.Clear()
}

// Realpath implements the realpath row: when under the virtual domain,
// return the canonicalized path.
func (d *Dispatcher) Realpath(path string) (resolved string, virtual bool) {
	segments, virtual := d.resolve(path)
	record("realpath", virtual)
	if !virtual {
		return "", false
	}
	return "/" + strings.Join(segments, "/"), true
}

// Mmap implements the mmap row: only intercepted when fd is a virtual fd
// with a file backing. Returns the file's full content for the caller
// (capi's real mmap trampoline) to memcpy into a freshly mapped anonymous
// region; it never touches the registry's per-fd read offset.
func (d *Dispatcher) Mmap(fd int) (content []byte, errno Errno, virtual bool) {
	if !d.reg.IsVirtualFD(fd) {
		record("mmap", false)
		return nil, 0, false
	}
	record("mmap", true)
	content, err := d.reg.Content(fd)
	if err != nil {
		return nil, EBadF, true
	}
	return content, 0, true
}

// GetAttrList implements the macOS-only getattrlist row: a stub recognizing
// a single attribute query, ATTR_CMN_OBJTYPE, answered from the same
// classification stat/fstat already use. Any other requested attribute bit
// is outside this stub's scope and the caller should forward to the real
// getattrlist.
func (d *Dispatcher) GetAttrList(path string) (kind abi.FileKind, errno Errno, virtual bool) {
	segments, isVirtual := d.resolve(path)
	record("getattrlist", isVirtual)
	if !isVirtual {
		return 0, 0, false
	}
	ft, ok := d.trie.Classify(segments)
	if !ok {
		return 0, ENoent, true
	}
	if ft.IsDir {
		return abi.KindDir, 0, true
	}
	return abi.KindFile, 0, true
}

// Mkdir implements the mkdir row: succeeds only if the directory already
// exists in the store (read-only semantics) — kept as-is per DESIGN.md's
// open-question decision, but logged since it diverges from real mkdir(2)
// (which would EEXIST here).
func (d *Dispatcher) Mkdir(path string) (errno Errno, virtual bool) {
	segments, isVirtual := d.resolve(path)
	record("mkdir", isVirtual)
	if !isVirtual {
		return 0, false
	}
	ft, ok := d.trie.Classify(segments)
	if !ok || !ft.IsDir {
		return ENoent, true
	}
	if d.warnOnMkdirReuse {
		logger.Warnf("dispatch: mkdir(%q) on an existing virtual directory returns 0, not EEXIST", path)
	}
	return 0, true
}
