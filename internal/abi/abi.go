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

// Package abi builds the platform C ABI values (stat buffers, the dirent
// d_type byte, synthetic device numbers) that end up in caller-supplied
// pointers; the dirent struct itself is allocated by capi's C code. The layouts differ by OS/arch; callers never construct these
// fields by hand.
package abi

// FileKind discriminates the two shapes a trie entry can classify to.
type FileKind int

const (
	KindFile FileKind = iota
	KindDir
)

// StatInfo is the OS-agnostic input to Populate. Dispatch and the trie fill
// this in from a FileType; platform-specific code in stat_*.go lays it out
// into the real struct stat bytes.
type StatInfo struct {
	Dev     uint64 // synthetic device number, see Makedev
	Ino     uint64 // derived inode, see Inode
	Kind    FileKind
	Size    int64 // content length for files, 1 for directories
	Uid     uint32
	Gid     uint32
	Blksize int64
}

// Mode returns the S_IFREG|0444 / S_IFDIR|0555 mode bits, independent of
// platform (the S_IF* constants are POSIX-stable across Linux and Darwin).
func (s StatInfo) Mode() uint32 {
	const (
		sIFREG = 0100000
		sIFDIR = 0040000
	)
	if s.Kind == KindDir {
		return sIFDIR | 0555
	}
	return sIFREG | 0444
}

// Blocks returns st_blocks: ceil(size/512) rounded up to a multiple of 8 for
// files, 0 for directories.
func (s StatInfo) Blocks() int64 {
	if s.Kind == KindDir {
		return 0
	}
	sectors := (s.Size + 511) / 512
	return ((sectors + 7) / 8) * 8
}

// Nlink is always 1: the trie never models hard links.
const Nlink = 1

// DirentType returns DT_REG/DT_DIR for the dirent d_type byte.
func (s StatInfo) DirentType() uint8 {
	const (
		dtReg = 8
		dtDir = 4
	)
	if s.Kind == KindDir {
		return dtDir
	}
	return dtReg
}
