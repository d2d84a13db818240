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

package dispatch

import "golang.org/x/sys/unix"

// Errno is the small sentinel-kind error type the Dispatcher returns for a
// virtual call instead of a raw int; it maps internal/registry's Go errors
// onto it. The zero value means success. The cgo export layer (capi) writes
// Errno.Unix() into C's errno and returns the platform-standard sentinel.
type Errno int

const (
	// ENoent: virtual path or fd not found (classify miss, unknown fd,
	// unknown stream).
	ENoent Errno = iota + 1
	// ENotDir: file where directory expected (O_DIRECTORY on a file path).
	ENotDir
	// EFault: caller-supplied buffer pointer is null.
	EFault
	// EBadF: mmap read from a virtual fd failed.
	EBadF
	// EInval: argument invalid (e.g. readlink on a non-symlink).
	EInval
	// ENotSup: operation not supported on this descriptor kind.
	ENotSup
)

func (e Errno) Error() string {
	switch e {
	case ENoent:
		return "no such file or directory"
	case ENotDir:
		return "not a directory"
	case EFault:
		return "bad address"
	case EBadF:
		return "bad file descriptor"
	case EInval:
		return "invalid argument"
	case ENotSup:
		return "operation not supported"
	default:
		return "unknown kompofs errno"
	}
}

// Unix returns the golang.org/x/sys/unix errno value the cgo export layer
// writes into C's errno.
func (e Errno) Unix() unix.Errno {
	switch e {
	case ENoent:
		return unix.ENOENT
	case ENotDir:
		return unix.ENOTDIR
	case EFault:
		return unix.EFAULT
	case EBadF:
		return unix.EBADF
	case EInval:
		return unix.EINVAL
	case ENotSup:
		return unix.ENOTSUP
	default:
		return unix.EIO
	}
}
