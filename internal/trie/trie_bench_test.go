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
	"fmt"
	"testing"
)

func buildBenchTrie(dirs, filesPerDir int) *Trie {
	b := NewBuilder()
	for d := 0; d < dirs; d++ {
		dir := fmt.Sprintf("dir%d", d)
		for f := 0; f < filesPerDir; f++ {
			name := fmt.Sprintf("file%d.txt", f)
			b.Insert([]string{"srv", dir, name}, []byte("content"))
		}
	}
	return b.Freeze()
}

func BenchmarkExactMatch(b *testing.B) {
	t := buildBenchTrie(100, 100)
	segments := []string{"srv", "dir50", "file50.txt"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = t.ExactMatch(segments)
	}
}

func BenchmarkExactMatch_Miss(b *testing.B) {
	t := buildBenchTrie(100, 100)
	segments := []string{"srv", "dir50", "nonexistent.txt"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = t.ExactMatch(segments)
	}
}

func BenchmarkClassify_Directory(b *testing.B) {
	t := buildBenchTrie(100, 100)
	segments := []string{"srv", "dir50"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = t.Classify(segments)
	}
}

func BenchmarkPredictiveSearch(b *testing.B) {
	t := buildBenchTrie(10, 1000)
	segments := []string{"srv", "dir5"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = t.PredictiveSearch(segments)
	}
}
