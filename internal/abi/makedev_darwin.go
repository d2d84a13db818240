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

//go:build darwin

package abi

// SyntheticDevMajor/Minor pick a device number unlikely to collide with any
// real device visible to the process: makedev(2222,0).
const (
	SyntheticDevMajor = 2222
	SyntheticDevMinor = 0
)

// SyntheticDev reimplements BSD's makedev(3) bit layout directly: Darwin's
// golang.org/x/sys/unix does not export Mkdev, unlike the Linux build.
func SyntheticDev() uint64 {
	major := uint64(SyntheticDevMajor)
	minor := uint64(SyntheticDevMinor)
	return (major << 24) | (minor & 0xffffff)
}
