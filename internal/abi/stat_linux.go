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

//go:build linux

package abi

import "golang.org/x/sys/unix"

// Populate fills a unix.Stat_t with the same byte layout glibc's struct stat
// uses on this arch; golang.org/x/sys/unix guarantees the field layout
// matches the platform ABI, so the dispatcher can memcpy this value
// directly into the caller's buffer.
func Populate(info StatInfo) unix.Stat_t {
	var st unix.Stat_t
	st.Dev = info.Dev
	st.Ino = info.Ino
	st.Nlink = Nlink
	st.Mode = info.Mode()
	st.Uid = info.Uid
	st.Gid = info.Gid
	st.Rdev = 0
	st.Size = info.Size
	st.Blksize = info.Blksize
	st.Blocks = info.Blocks()
	// All timestamps are zero: reporting correct modification timestamps is
	// out of scope.
	st.Atim = unix.Timespec{}
	st.Mtim = unix.Timespec{}
	st.Ctim = unix.Timespec{}
	return st
}
