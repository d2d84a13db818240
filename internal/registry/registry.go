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

// Package registry implements the Descriptor Registry: it maps real,
// borrowed OS file descriptors onto open virtual files and directories,
// tracking per-handle read offsets and directory cursors, keyed by a real
// fd instead of a FUSE handle ID.
package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jacobsa/syncutil"
	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/logger"
	"github.com/kompofs/kompofs/internal/trie"
	"golang.org/x/sys/unix"
)

// ErrNotFound is returned for operations on an fd or stream the registry
// does not know about.
var ErrNotFound = errors.New("kompofs: unknown virtual descriptor")

// ErrNotSupported is returned when read is attempted on a directory fd.
var ErrNotSupported = errors.New("kompofs: unsupported operation on directory descriptor")

// entry is the per-fd state the registry owns. Exactly one of (is file) or
// (is dir) holds, mirroring trie.FileType's discriminated shape.
type entry struct {
	ft     trie.FileType
	offset uint64 // valid for files only; GUARDED_BY mu
}

// Registry is the process-wide fd table. Mutations (open*/close*/opendir/
// closedir/read) are serialized under a single writer-exclusive lock: no
// two threads observe a torn Registry state.
type Registry struct {
	mu      syncutil.InvariantMutex
	byFD    map[int]*entry
	dev     uint64
	blksize int64
	trie    *trie.Trie
}

// New returns an empty Registry backed by t, stamping every stat buffer it
// produces with dev/blksize.
func New(t *trie.Trie, dev uint64, blksize int64) *Registry {
	r := &Registry{
		byFD:    make(map[int]*entry),
		dev:     dev,
		blksize: blksize,
		trie:    t,
	}
	r.mu = syncutil.NewInvariantMutex(r.checkInvariants)
	return r
}

func (r *Registry) checkInvariants() {
	for fd, e := range r.byFD {
		if fd < 0 {
			panic(fmt.Sprintf("registry: negative fd %d in table", fd))
		}
		if !e.ft.IsDir && e.offset > uint64(len(e.ft.Content)) {
			panic(fmt.Sprintf("registry: fd %d offset %d exceeds content length %d", fd, e.offset, len(e.ft.Content)))
		}
	}
}

// newRealFD duplicates descriptor 0 to obtain a real, unique, closable
// kernel descriptor — this is what lets IsVirtualFD be answered purely by
// registry lookup, since every registered fd is, underneath, a real fd the
// kernel issued.
func newRealFD() (int, error) {
	return unix.Dup(0)
}

// Open implements open: classify, and on a hit duplicate fd 0, register it
// with offset 0, and return it.
func (r *Registry) Open(segments []string) (fd int, ok bool, err error) {
	ft, ok := r.trie.Classify(segments)
	if !ok {
		return 0, false, nil
	}
	real, err := newRealFD()
	if err != nil {
		return 0, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFD[real] = &entry{ft: ft}
	logger.Debugf("registry: open fd=%d path=%v isDir=%v", real, segments, ft.IsDir)
	return real, true, nil
}

// Read implements read: copy min(remaining, len(buf)) bytes from the
// current offset, advance it, and return the count. EOF returns 0.
func (r *Registry) Read(fd int, buf []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byFD[fd]
	if !ok {
		return 0, ErrNotFound
	}
	if e.ft.IsDir {
		return 0, ErrNotSupported
	}
	remaining := uint64(len(e.ft.Content)) - e.offset
	if remaining == 0 {
		return 0, nil
	}
	n = len(buf)
	if uint64(n) > remaining {
		n = int(remaining)
	}
	copy(buf[:n], e.ft.Content[e.offset:e.offset+uint64(n)])
	e.offset += uint64(n)
	return n, nil
}

// Close implements close: remove the registry entry if present, returning 0
// unconditionally. The cgo export layer's close (capi) then closes the real
// fd — every registered fd is a real duplicated fd, so the real close always
// happens regardless of whether the registry knew about it.
func (r *Registry) Close(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFD[fd]; ok {
		delete(r.byFD, fd)
		logger.Debugf("registry: close fd=%d", fd)
	}
}

// Fstat implements fstat: build the stat buffer from the stored FileType.
// Returns ErrNotFound for an unknown fd.
func (r *Registry) Fstat(fd int) (abi.StatInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byFD[fd]
	if !ok {
		return abi.StatInfo{}, ErrNotFound
	}
	return r.trie.StatOf(e.ft, r.dev, r.blksize), nil
}

// IsVirtualFD reports whether fd is tracked by the registry, the predicate
// internal/dispatch's routing decision tree consults.
func (r *Registry) IsVirtualFD(fd int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byFD[fd]
	return ok
}

// Content returns the full backing byte slice of a virtual file fd,
// independent of its current read offset. Used by the mmap emulation,
// which maps in the whole file regardless of where a prior read left the
// cursor.
func (r *Registry) Content(fd int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byFD[fd]
	if !ok {
		return nil, ErrNotFound
	}
	if e.ft.IsDir {
		return nil, ErrNotSupported
	}
	return e.ft.Content, nil
}

// classifyFor is used by OpenDir/FdOpenDir to fetch the FileType of a
// directory fd already in the table.
func (r *Registry) classifyFor(fd int) (trie.FileType, bool) {
	e, ok := r.byFD[fd]
	if !ok {
		return trie.FileType{}, false
	}
	return e.ft, true
}

// Stream is a virtual directory stream: a heap-allocated {fd, cursor}. The
// cgo export layer hands the caller a separate opaque DIR* block and maps
// it back to the Stream in a side table. id is a uuid purely for log
// correlation — concurrent
// opendir/readdir traffic on different threads is otherwise
// indistinguishable in a log line that only has the fd.
type Stream struct {
	FD     int
	Cursor uint64
	id     uuid.UUID
}

// OpenDir implements opendir: classify, and on a directory hit allocate a
// fresh fd and a fresh Stream at cursor 0.
func (r *Registry) OpenDir(segments []string) (*Stream, error) {
	ft, ok := r.trie.Classify(segments)
	if !ok || !ft.IsDir {
		return nil, ErrNotFound
	}
	real, err := newRealFD()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.byFD[real] = &entry{ft: ft}
	r.mu.Unlock()

	s := &Stream{FD: real, id: uuid.New()}
	logger.Debugf("registry: opendir fd=%d stream=%s path=%v", real, s.id, segments)
	return s, nil
}

// FdOpenDir implements fdopendir: fd must already be registered as a
// directory.
func (r *Registry) FdOpenDir(fd int) (*Stream, error) {
	r.mu.Lock()
	ft, ok := r.classifyFor(fd)
	r.mu.Unlock()
	if !ok || !ft.IsDir {
		return nil, ErrNotFound
	}
	return &Stream{FD: fd, id: uuid.New()}, nil
}

// Dirent is one entry yielded by ReadDir.
type Dirent struct {
	Inode uint64
	Type  uint8 // DT_REG or DT_DIR, see abi.StatInfo.DirentType
	Name  string
}

// ReadDir implements readdir: yield the child at position s.Cursor,
// post-incrementing it; return ok=false past the last entry.
func (r *Registry) ReadDir(s *Stream) (Dirent, bool, error) {
	r.mu.Lock()
	ft, ok := r.classifyFor(s.FD)
	r.mu.Unlock()
	if !ok || !ft.IsDir {
		return Dirent{}, false, ErrNotFound
	}
	if s.Cursor >= uint64(len(ft.Children)) {
		return Dirent{}, false, nil
	}
	name := ft.Children[s.Cursor]
	childSegments := append(append([]string{}, ft.Segments...), name)
	childFT, ok := r.trie.Classify(childSegments)
	if !ok {
		// The child came from the trie's own enumeration moments ago; this
		// can only happen if the trie were mutated concurrently, which it
		// never is (frozen at construction).
		return Dirent{}, false, fmt.Errorf("registry: child %v vanished from immutable trie", childSegments)
	}
	info := r.trie.StatOf(childFT, r.dev, r.blksize)
	s.Cursor++
	return Dirent{Inode: info.Ino, Type: info.DirentType(), Name: name}, true, nil
}

// RewindDir implements rewinddir.
func (r *Registry) RewindDir(s *Stream) {
	s.Cursor = 0
}

// CloseDir implements closedir: deregister the fd. Closing the real fd and
// freeing the opaque DIR* block is the cgo export layer's job (it holds
// s.FD and the malloc'd pointer, neither of which reach the registry).
func (r *Registry) CloseDir(s *Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byFD, s.FD)
	logger.Debugf("registry: closedir fd=%d stream=%s", s.FD, s.id)
}

// Len reports the number of live fd-table entries, exported for
// internal/metrics' gauge.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byFD)
}

// CloseAll closes every outstanding real descriptor via the real OS close.
// Intended for process-shutdown paths only.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	fds := make([]int, 0, len(r.byFD))
	for fd := range r.byFD {
		fds = append(fds, fd)
	}
	r.byFD = make(map[int]*entry)
	r.mu.Unlock()

	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}
