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

package pathvfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		wd, p, want string
	}{
		{"/a/b", "../c/./d", "/a/c/d"},
		{"/a", "../../b", "/b"},
		{"/home", "/etc/c", "/home/etc/c"},
		{"/", "a/b", "/a/b"},
		{"/a/b/c", "..", "/a/b"},
		{"/", "../../..", "/"},
	}
	for _, tc := range cases {
		got := Canonicalize(tc.wd, tc.p)
		assert.Equalf(t, tc.want, got, "Canonicalize(%q, %q)", tc.wd, tc.p)
	}
}

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Segments("/a/b"))
	assert.Empty(t, Segments("/"))
}

func TestWorkingDir_RoundTrip(t *testing.T) {
	var w WorkingDir
	_, ok := w.Get()
	assert.False(t, ok)

	w.Set("/app/bin")
	dir, ok := w.Get()
	assert.True(t, ok)
	assert.Equal(t, "/app/bin", dir)

	w.Clear()
	_, ok = w.Get()
	assert.False(t, ok)
}
