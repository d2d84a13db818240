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

// Package trie implements the Path Trie Store: an immutable, in-memory
// index from path segments to the byte ranges of an embedded bundle, able
// to answer exact-match lookups and enumerate a directory's immediate
// children.
//
// The shape is deliberately plain: a tree of nodes keyed by path segment,
// each optionally holding file content, built as a hand-rolled
// map[string]*node rather than reaching for a generic trie or radix-tree
// package.
package trie

import (
	"os/user"
	"sort"
	"strconv"

	"github.com/kompofs/kompofs/internal/abi"
)

// node is one segment of the trie. A node with isFile set is a File; a node
// without it that has children is a Directory. A node that is both a file
// and has children classifies as a File (the bundle format never produces
// that, but nothing here assumes it can't).
type node struct {
	name     string
	content  []byte // nil unless this node is a file
	isFile   bool
	children map[string]*node
	segments []string // full path segments from root to this node
}

func newNode(name string, segments []string) *node {
	return &node{
		name:     name,
		children: make(map[string]*node),
		segments: segments,
	}
}

// Trie is the immutable, built-once index. The zero value is not usable;
// construct one with Builder.
type Trie struct {
	root *node
	uid  uint32
	gid  uint32
}

// Builder accumulates entries before Freeze produces an immutable Trie.
// Keeping Builder and Trie as distinct types means nothing can mutate a
// Trie handed out to readers.
type Builder struct {
	root *node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{root: newNode("", nil)}
}

// Insert adds one bundled path (already split into its segments) with its
// backing byte slice. Segments must not be empty.
func (b *Builder) Insert(segments []string, content []byte) {
	cur := b.root
	for i, seg := range segments {
		child, ok := cur.children[seg]
		if !ok {
			child = newNode(seg, append(append([]string{}, segments[:i]...), seg))
			cur.children[seg] = child
		}
		cur = child
	}
	cur.isFile = true
	cur.content = content
}

// Freeze produces the immutable Trie. The caller-visible uid/gid are the
// real uid/gid of the current process.
func (b *Builder) Freeze() *Trie {
	uid, gid := currentIDs()
	return &Trie{root: b.root, uid: uid, gid: gid}
}

func currentIDs() (uint32, uint32) {
	u, err := user.Current()
	if err != nil {
		return 0, 0
	}
	uid, err1 := strconv.ParseUint(u.Uid, 10, 32)
	gid, err2 := strconv.ParseUint(u.Gid, 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return uint32(uid), uint32(gid)
}

func (t *Trie) walk(segments []string) *node {
	cur := t.root
	for _, seg := range segments {
		next, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// ExactMatch is an O(depth) lookup, returning the backing byte slice only
// when segments resolves to a file leaf.
func (t *Trie) ExactMatch(segments []string) ([]byte, bool) {
	n := t.walk(segments)
	if n == nil || !n.isFile {
		return nil, false
	}
	return n.content, true
}

// Entry is one result of PredictiveSearch: the full segment path of a file
// descendant and its content.
type Entry struct {
	Segments []string
	Content  []byte
	IsFile   bool
}

// PredictiveSearch enumerates every file descendant of the given prefix in
// lexicographic segment order; directories themselves are not yielded. It
// returns a slice rather than a stream. Classify does not use it (it reads
// a node's children directly); cmd/kompofs inspect uses it to list every
// bundled file.
func (t *Trie) PredictiveSearch(prefix []string) []Entry {
	n := t.walk(prefix)
	if n == nil {
		return nil
	}
	var out []Entry
	var visit func(*node)
	visit = func(cur *node) {
		if cur.isFile {
			out = append(out, Entry{Segments: cur.segments, Content: cur.content, IsFile: true})
		}
		names := make([]string, 0, len(cur.children))
		for name := range cur.children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			visit(cur.children[name])
		}
	}
	// The prefix node itself is not part of its own descendant set.
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		visit(n.children[name])
	}
	return out
}

// FileType is the discriminated variant a classified path resolves to:
// either a File (content + mutable read offset, owned by the registry, not
// the trie) or a Directory (its deduplicated, lexicographically-ordered
// immediate children).
type FileType struct {
	Segments []string
	IsDir    bool
	Content  []byte   // valid when !IsDir
	Children []string // immediate child segments, valid when IsDir
}

// Classify implements classification: an exact-match hit is a File;
// otherwise, any descendant makes it a Directory whose Children is the
// deduplicated, ordered set of segments at depth len(segments)+1. Absent if
// neither holds.
func (t *Trie) Classify(segments []string) (FileType, bool) {
	n := t.walk(segments)
	if n == nil {
		return FileType{}, false
	}
	if n.isFile && len(n.children) == 0 {
		return FileType{Segments: segments, Content: n.content}, true
	}
	if n.isFile {
		// A path that is both a file and a prefix of other bundled paths:
		// the bundle format never produces this, but classification must
		// still pick one; favor the file, consistent with ExactMatch.
		return FileType{Segments: segments, Content: n.content}, true
	}
	if len(n.children) == 0 {
		return FileType{}, false
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return FileType{Segments: segments, IsDir: true, Children: names}, true
}

// StatOf populates an abi.StatInfo from a classified FileType. The
// synthetic device number and Blksize are fixed module-wide constants
// threaded in by the caller (dispatch), not stored on the Trie, since they
// are not a property of any single entry.
func (t *Trie) StatOf(ft FileType, dev uint64, blksize int64) abi.StatInfo {
	info := abi.StatInfo{
		Dev:     dev,
		Ino:     abi.Inode(ft.Segments),
		Uid:     t.uid,
		Gid:     t.gid,
		Blksize: blksize,
	}
	if ft.IsDir {
		info.Kind = abi.KindDir
		info.Size = 1
	} else {
		info.Kind = abi.KindFile
		info.Size = int64(len(ft.Content))
	}
	return info
}
