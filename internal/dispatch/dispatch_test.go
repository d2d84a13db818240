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

package dispatch

import (
	"testing"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/pathvfs"
	"github.com/kompofs/kompofs/internal/registry"
	"github.com/kompofs/kompofs/internal/trie"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeRealOS is a no-op RealOS: every real-forwarded call in these tests is
// expected to never actually invoke it beyond the routing decision, since
// dispatch.go's real=true returns hand control back to the cgo caller
// before touching RealOS.
type fakeRealOS struct{}

func (fakeRealOS) Open(string, int, uint32) (int, error)              { return 0, nil }
func (fakeRealOS) Close(int) error                                    { return nil }
func (fakeRealOS) Read(int, []byte) (int, error)                      { return 0, nil }
func (fakeRealOS) Stat(string) (abi.StatInfo, error)                  { return abi.StatInfo{}, nil }
func (fakeRealOS) Fstat(int) (abi.StatInfo, error)                    { return abi.StatInfo{}, nil }
func (fakeRealOS) Chdir(string) error                                  { return nil }
func (fakeRealOS) Getcwd() (string, error)                            { return "", nil }
func (fakeRealOS) Realpath(string) (string, error)                    { return "", nil }
func (fakeRealOS) Mkdir(string, uint32) error                         { return nil }
func (fakeRealOS) OpenDir(string) (uintptr, error)                    { return 0, nil }
func (fakeRealOS) FdOpenDir(int) (uintptr, error)                     { return 0, nil }
func (fakeRealOS) ReadDir(uintptr) (string, uint64, uint8, bool, error) {
	return "", 0, 0, true, nil
}
func (fakeRealOS) RewindDir(uintptr)        {}
func (fakeRealOS) CloseDir(uintptr) error { return nil }

type DispatchTest struct {
	suite.Suite
	d  *Dispatcher
	wd *pathvfs.WorkingDir
}

func TestDispatchSuite(t *testing.T) {
	suite.Run(t, new(DispatchTest))
}

func (ts *DispatchTest) SetupTest() {
	// Bundle PATHS are absolute, so trie keys carry the full path including
	// the virtual-root prefix, not a root-relative suffix.
	b := trie.NewBuilder()
	b.Insert([]string{"opt", "app", "test", "hello.txt"}, []byte("hello"))
	b.Insert([]string{"opt", "app", "test", "sub", "world.txt"}, []byte("world"))
	tr := b.Freeze()
	reg := registry.New(tr, 0, 4096)
	ts.wd = &pathvfs.WorkingDir{}
	ts.d = New(tr, reg, ts.wd, "/opt/app", fakeRealOS{}, 0, 4096)
}

func (ts *DispatchTest) TestOpen_AbsoluteVirtualHit() {
	fd, errno, real := ts.d.Open("/opt/app/test/hello.txt", 0, 0)
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)
	ts.True(ts.d.reg.IsVirtualFD(fd))
	ts.d.reg.Close(fd)
}

func (ts *DispatchTest) TestOpen_OutsideRootForwardsReal() {
	_, errno, real := ts.d.Open("/etc/passwd", 0, 0)
	ts.True(real)
	ts.EqualValues(0, errno)
}

func (ts *DispatchTest) TestOpen_AbsoluteWithDotDotResolves() {
	fd, errno, real := ts.d.Open("/opt/app/test/sub/../hello.txt", 0, 0)
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)
	ts.d.reg.Close(fd)
}

func (ts *DispatchTest) TestOpen_MissingPathIsNoent() {
	_, errno, real := ts.d.Open("/opt/app/test/missing.txt", 0, 0)
	ts.False(real)
	ts.Equal(ENoent, errno)
}

func (ts *DispatchTest) TestOpen_OCreatAlwaysForwards() {
	_, _, real := ts.d.Open("/opt/app/test/hello.txt", OCreat, 0)
	ts.True(real)
}

func (ts *DispatchTest) TestOpen_RelativeWithoutWorkingDirIsReal() {
	_, _, real := ts.d.Open("hello.txt", 0, 0)
	ts.True(real)
}

func (ts *DispatchTest) TestChdir_ThenRelativeOpenResolves() {
	errno, handled := ts.d.Chdir("/opt/app/test")
	require.True(ts.T(), handled)
	require.EqualValues(ts.T(), 0, errno)

	fd, errno, real := ts.d.Open("hello.txt", 0, 0)
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)
	ts.d.reg.Close(fd)
}

func (ts *DispatchTest) TestChdir_ToFileForwardsReal() {
	errno, handled := ts.d.Chdir("/opt/app/test/hello.txt")
	ts.False(handled)
	ts.EqualValues(0, errno)
}

func (ts *DispatchTest) TestStat_DirectoryAndFile() {
	info, errno, real := ts.d.Stat("/opt/app/test", true)
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)
	ts.Equal(abi.KindDir, info.Kind)

	info, errno, real = ts.d.Stat("/opt/app/test/hello.txt", true)
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)
	ts.Equal(abi.KindFile, info.Kind)
	ts.EqualValues(5, info.Size)
}

func (ts *DispatchTest) TestStat_NullBufferIsFault() {
	_, errno, real := ts.d.Stat("/opt/app/test/hello.txt", false)
	ts.False(real)
	ts.Equal(EFault, errno)
}

func (ts *DispatchTest) TestAccess_HitAndMiss() {
	errno, real := ts.d.Access("/opt/app/test/hello.txt")
	ts.False(real)
	ts.EqualValues(0, errno)

	errno, real = ts.d.Access("/opt/app/test/nope.txt")
	ts.False(real)
	ts.Equal(ENoent, errno)
}

func (ts *DispatchTest) TestReadlink_AlwaysInvalidOnVirtualPath() {
	errno, real := ts.d.Readlink("/opt/app/test/hello.txt")
	ts.False(real)
	ts.Equal(EInval, errno)
}

func (ts *DispatchTest) TestRealpath_VirtualPathIsCanonicalized() {
	resolved, virtual := ts.d.Realpath("/opt/app/test/../test/./hello.txt")
	ts.True(virtual)
	ts.Equal("/opt/app/test/hello.txt", resolved)
}

func (ts *DispatchTest) TestOpenDirReadDirCloseDir() {
	s, errno, real := ts.d.OpenDir("/opt/app/test")
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)

	names := map[string]bool{}
	for {
		entry, eof, errno := ts.d.ReadDir(s)
		require.EqualValues(ts.T(), 0, errno)
		if eof {
			break
		}
		names[entry.Name] = true
	}
	ts.True(names["hello.txt"])
	ts.True(names["sub"])

	ts.d.CloseDir(s)
}

func (ts *DispatchTest) TestMkdir_ExistingVirtualDirSucceeds() {
	errno, virtual := ts.d.Mkdir("/opt/app/test")
	ts.True(virtual)
	ts.EqualValues(0, errno)
}

func (ts *DispatchTest) TestMkdir_MissingPathIsNoent() {
	errno, virtual := ts.d.Mkdir("/opt/app/nope")
	ts.True(virtual)
	ts.Equal(ENoent, errno)
}

func (ts *DispatchTest) TestGetcwd_UnsetIsNotOk() {
	_, ok := ts.d.Getcwd()
	ts.False(ok)
}

func (ts *DispatchTest) TestGetcwd_AfterChdir() {
	_, _ = ts.d.Chdir("/opt/app/test")
	dir, ok := ts.d.Getcwd()
	ts.True(ok)
	ts.Equal("/opt/app/test", dir)
}

func (ts *DispatchTest) TestClearWorkingDir() {
	ts.d.Chdir("/opt/app/test")
	ts.d.ClearWorkingDir()
	_, ok := ts.d.Getcwd()
	ts.False(ok)
}

func (ts *DispatchTest) TestMmap_VirtualFDReturnsContent() {
	fd, errno, real := ts.d.Open("/opt/app/test/hello.txt", 0, 0)
	require.False(ts.T(), real)
	require.EqualValues(ts.T(), 0, errno)

	content, mmapErrno, virtual := ts.d.Mmap(fd)
	ts.True(virtual)
	ts.EqualValues(0, mmapErrno)
	ts.Equal("hello", string(content))

	ts.d.reg.Close(fd)
}

func (ts *DispatchTest) TestMmap_RealFDForwards() {
	_, errno, virtual := ts.d.Mmap(99)
	ts.False(virtual)
	ts.EqualValues(0, errno)
}

func (ts *DispatchTest) TestGetAttrList_FileAndDirectory() {
	kind, errno, virtual := ts.d.GetAttrList("/opt/app/test/hello.txt")
	ts.True(virtual)
	ts.EqualValues(0, errno)
	ts.Equal(abi.KindFile, kind)

	kind, errno, virtual = ts.d.GetAttrList("/opt/app/test")
	ts.True(virtual)
	ts.EqualValues(0, errno)
	ts.Equal(abi.KindDir, kind)
}

func (ts *DispatchTest) TestGetAttrList_MissingPathIsNoent() {
	_, errno, virtual := ts.d.GetAttrList("/opt/app/test/missing.txt")
	ts.True(virtual)
	ts.Equal(ENoent, errno)
}

func (ts *DispatchTest) TestGetAttrList_OutsideRootForwardsReal() {
	_, _, virtual := ts.d.GetAttrList("/etc/passwd")
	ts.False(virtual)
}
