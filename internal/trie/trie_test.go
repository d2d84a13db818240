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

package trie

import (
	"testing"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TrieTest struct {
	suite.Suite
	trie *Trie
}

func TestTrieSuite(t *testing.T) {
	suite.Run(t, new(TrieTest))
}

func (ts *TrieTest) SetupTest() {
	b := NewBuilder()
	b.Insert([]string{"test", "hello.txt"}, []byte("Hello, World!"))
	b.Insert([]string{"test", "world.txt"}, []byte("Test Content"))
	b.Insert([]string{"test", "nested", "leaf.txt"}, []byte("leaf"))
	ts.trie = b.Freeze()
}

func (ts *TrieTest) TestExactMatch_Hit() {
	content, ok := ts.trie.ExactMatch([]string{"test", "hello.txt"})
	require.True(ts.T(), ok)
	assert.Equal(ts.T(), "Hello, World!", string(content))
}

func (ts *TrieTest) TestExactMatch_Miss() {
	_, ok := ts.trie.ExactMatch([]string{"test", "nonexistent"})
	assert.False(ts.T(), ok)
}

func (ts *TrieTest) TestClassify_File() {
	ft, ok := ts.trie.Classify([]string{"test", "hello.txt"})
	require.True(ts.T(), ok)
	assert.False(ts.T(), ft.IsDir)
	assert.Equal(ts.T(), 13, len(ft.Content))
}

func (ts *TrieTest) TestClassify_Directory_DeduplicatesChildren() {
	ft, ok := ts.trie.Classify([]string{"test"})
	require.True(ts.T(), ok)
	require.True(ts.T(), ft.IsDir)
	assert.Equal(ts.T(), []string{"hello.txt", "nested", "world.txt"}, ft.Children)
}

func (ts *TrieTest) TestClassify_Absent() {
	_, ok := ts.trie.Classify([]string{"nope"})
	assert.False(ts.T(), ok)
}

func (ts *TrieTest) TestClassify_Root() {
	ft, ok := ts.trie.Classify(nil)
	require.True(ts.T(), ok)
	assert.True(ts.T(), ft.IsDir)
	assert.Equal(ts.T(), []string{"test"}, ft.Children)
}

func (ts *TrieTest) TestStatOf_FileSizeMatchesContent() {
	ft, _ := ts.trie.Classify([]string{"test", "hello.txt"})
	info := ts.trie.StatOf(ft, 0, 4096)
	assert.Equal(ts.T(), int64(13), info.Size)
	assert.Equal(ts.T(), abi.KindFile, info.Kind)
}

func (ts *TrieTest) TestStatOf_DirectorySizeIsOne() {
	ft, _ := ts.trie.Classify([]string{"test"})
	info := ts.trie.StatOf(ft, 0, 4096)
	assert.Equal(ts.T(), int64(1), info.Size)
}

func (ts *TrieTest) TestStatOf_IdempotentAcrossCalls() {
	ft, _ := ts.trie.Classify([]string{"test", "hello.txt"})
	a := ts.trie.StatOf(ft, 7, 4096)
	b := ts.trie.StatOf(ft, 7, 4096)
	assert.Equal(ts.T(), a, b)
}

func (ts *TrieTest) TestInode_DeterministicAndNonZero() {
	ft, _ := ts.trie.Classify([]string{"test", "hello.txt"})
	a := abi.Inode(ft.Segments)
	b := abi.Inode(ft.Segments)
	assert.Equal(ts.T(), a, b)
	assert.NotZero(ts.T(), a)
}

func (ts *TrieTest) TestPredictiveSearch_OrderedLexicographically() {
	entries := ts.trie.PredictiveSearch([]string{"test"})
	var names []string
	for _, e := range entries {
		if e.IsFile {
			names = append(names, e.Segments[len(e.Segments)-1])
		}
	}
	assert.Equal(ts.T(), []string{"hello.txt", "leaf.txt", "world.txt"}, names)
}
