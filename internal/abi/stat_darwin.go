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

package abi

import "golang.org/x/sys/unix"

// Populate fills a unix.Stat_t with Darwin's struct stat layout (distinct
// field widths and ordering from Linux's, which is the entire reason this
// file has its own build tag rather than sharing stat_linux.go).
func Populate(info StatInfo) unix.Stat_t {
	var st unix.Stat_t
	st.Dev = int32(info.Dev)
	st.Ino = info.Ino
	st.Nlink = uint16(Nlink)
	st.Mode = uint16(info.Mode())
	st.Uid = info.Uid
	st.Gid = info.Gid
	st.Rdev = 0
	st.Size = info.Size
	st.Blksize = int32(info.Blksize)
	st.Blocks = info.Blocks()
	st.Atimespec = unix.Timespec{}
	st.Mtimespec = unix.Timespec{}
	st.Ctimespec = unix.Timespec{}
	st.Birthtimespec = unix.Timespec{}
	return st
}
