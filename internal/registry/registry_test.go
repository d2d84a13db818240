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

package registry

import (
	"testing"

	"github.com/kompofs/kompofs/internal/trie"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RegistryTest struct {
	suite.Suite
	reg *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTest))
}

func (ts *RegistryTest) SetupTest() {
	b := trie.NewBuilder()
	b.Insert([]string{"test", "hello.txt"}, []byte("Hello, World!"))
	b.Insert([]string{"test", "world.txt"}, []byte("Test Content"))
	ts.reg = New(b.Freeze(), 0, 4096)
}

func (ts *RegistryTest) TearDownTest() {
	ts.reg.CloseAll()
}

func (ts *RegistryTest) TestOpenReadToCompletion() {
	fd, ok, err := ts.reg.Open([]string{"test", "hello.txt"})
	require.NoError(ts.T(), err)
	require.True(ts.T(), ok)
	require.True(ts.T(), ts.reg.IsVirtualFD(fd))

	buf := make([]byte, 20)
	n, err := ts.reg.Read(fd, buf)
	require.NoError(ts.T(), err)
	ts.Equal(13, n)
	ts.Equal("Hello, World!", string(buf[:n]))

	n, err = ts.reg.Read(fd, buf)
	require.NoError(ts.T(), err)
	ts.Equal(0, n)

	ts.reg.Close(fd)
	ts.False(ts.reg.IsVirtualFD(fd))
}

func (ts *RegistryTest) TestOpenMiss() {
	_, ok, err := ts.reg.Open([]string{"test", "nonexistent"})
	require.NoError(ts.T(), err)
	ts.False(ok)
}

func (ts *RegistryTest) TestReadUnknownFD() {
	_, err := ts.reg.Read(99999, make([]byte, 1))
	ts.ErrorIs(err, ErrNotFound)
}

func (ts *RegistryTest) TestReadDirectoryIsNotSupported() {
	s, err := ts.reg.OpenDir([]string{"test"})
	require.NoError(ts.T(), err)
	_, err = ts.reg.Read(s.FD, make([]byte, 1))
	ts.ErrorIs(err, ErrNotSupported)
	ts.reg.CloseDir(s)
}

func (ts *RegistryTest) TestOpenDirReadDirYieldsEveryChildOnce() {
	s, err := ts.reg.OpenDir([]string{"test"})
	require.NoError(ts.T(), err)

	names := map[string]uint8{}
	for {
		d, ok, err := ts.reg.ReadDir(s)
		require.NoError(ts.T(), err)
		if !ok {
			break
		}
		names[d.Name] = d.Type
	}
	ts.Len(names, 2)
	ts.Contains(names, "hello.txt")
	ts.Contains(names, "world.txt")

	ts.reg.CloseDir(s)
}

func (ts *RegistryTest) TestRewindDir() {
	s, err := ts.reg.OpenDir([]string{"test"})
	require.NoError(ts.T(), err)

	first, _, err := ts.reg.ReadDir(s)
	require.NoError(ts.T(), err)

	ts.reg.RewindDir(s)
	again, _, err := ts.reg.ReadDir(s)
	require.NoError(ts.T(), err)
	ts.Equal(first, again)

	ts.reg.CloseDir(s)
}

func (ts *RegistryTest) TestFdOpenDir_RequiresAlreadyRegisteredDirectory() {
	fd, ok, err := ts.reg.Open([]string{"test", "hello.txt"})
	require.NoError(ts.T(), err)
	require.True(ts.T(), ok)

	_, err = ts.reg.FdOpenDir(fd)
	ts.ErrorIs(err, ErrNotFound)
	ts.reg.Close(fd)
}

func (ts *RegistryTest) TestFstat_SizeMatchesContent() {
	fd, ok, err := ts.reg.Open([]string{"test", "hello.txt"})
	require.NoError(ts.T(), err)
	require.True(ts.T(), ok)

	info, err := ts.reg.Fstat(fd)
	require.NoError(ts.T(), err)
	ts.EqualValues(13, info.Size)

	ts.reg.Close(fd)
}
