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

package kompofs

import (
	"testing"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/bundle"
	"github.com/stretchr/testify/require"
)

// stubRealOS satisfies dispatch.RealOS without ever being called by these
// tests: every exercised path here stays inside the virtual domain.
type stubRealOS struct{}

func (stubRealOS) Open(string, int, uint32) (int, error)                { return 0, nil }
func (stubRealOS) Close(int) error                                      { return nil }
func (stubRealOS) Read(int, []byte) (int, error)                        { return 0, nil }
func (stubRealOS) Stat(string) (abi.StatInfo, error)                    { return abi.StatInfo{}, nil }
func (stubRealOS) Fstat(int) (abi.StatInfo, error)                      { return abi.StatInfo{}, nil }
func (stubRealOS) Chdir(string) error                                   { return nil }
func (stubRealOS) Getcwd() (string, error)                              { return "", nil }
func (stubRealOS) Realpath(string) (string, error)                      { return "", nil }
func (stubRealOS) Mkdir(string, uint32) error                           { return nil }
func (stubRealOS) OpenDir(string) (uintptr, error)                      { return 0, nil }
func (stubRealOS) FdOpenDir(int) (uintptr, error)                       { return 0, nil }
func (stubRealOS) ReadDir(uintptr) (string, uint64, uint8, bool, error) { return "", 0, 0, true, nil }
func (stubRealOS) RewindDir(uintptr)                                    {}
func (stubRealOS) CloseDir(uintptr) error                               { return nil }

func testRaw() bundle.Raw {
	paths := []byte("/app/bin/main.rb\x00/app/bin/lib/helper.rb\x00")
	files := []byte("puts 1helper")
	return bundle.Raw{
		Paths:     paths,
		Files:     files,
		FileSizes: []uint64{0, 6, 12},
	}
}

func TestInit_IdempotentSingleton(t *testing.T) {
	mu.Lock()
	instance = nil
	mu.Unlock()

	i1, err := Init("/app", testRaw(), stubRealOS{})
	require.NoError(t, err)
	i2, err := Init("/app", testRaw(), stubRealOS{})
	require.NoError(t, err)
	require.Same(t, i1, i2)
	require.Same(t, i1, Current())
}

func TestSetEntrypointDir(t *testing.T) {
	mu.Lock()
	instance = nil
	mu.Unlock()
	inst, err := Init("/app", testRaw(), stubRealOS{})
	require.NoError(t, err)

	inst.SetEntrypointDir("/app/bin/main.rb")
	dir, ok := inst.wd.Get()
	require.True(t, ok)
	require.Equal(t, "/app/bin", dir)

	inst.SetEntrypointDir("")
	dir2, ok2 := inst.wd.Get()
	require.True(t, ok2)
	require.Equal(t, dir, dir2)
}

func TestKompoContext_ScopedActivation(t *testing.T) {
	mu.Lock()
	instance = nil
	mu.Unlock()
	inst, err := Init("/app", testRaw(), stubRealOS{})
	require.NoError(t, err)

	require.False(t, inst.IsKompoContext())
	inst.EnterKompoContext(func() {
		require.True(t, inst.IsKompoContext())
	})
	require.False(t, inst.IsKompoContext())
}
