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

package kompoctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlag_IsContextDefaultsFalse(t *testing.T) {
	var f Flag
	assert.False(t, f.IsContext(1))
}

func TestFlag_EnterContext_TrueDuringBlockFalseAfter(t *testing.T) {
	var f Flag
	const tid = 42
	assert.False(t, f.IsContext(tid))

	var observed bool
	f.EnterContext(tid, func() {
		observed = f.IsContext(tid)
	})

	assert.True(t, observed)
	assert.False(t, f.IsContext(tid))
}

func TestFlag_EnterContext_RestoresOnPanic(t *testing.T) {
	var f Flag
	const tid = 7

	func() {
		defer func() { _ = recover() }()
		f.EnterContext(tid, func() {
			panic("boom")
		})
	}()

	assert.False(t, f.IsContext(tid))
}

func TestFlag_EnterContext_Nested(t *testing.T) {
	var f Flag
	const tid = 3

	f.EnterContext(tid, func() {
		f.EnterContext(tid, func() {
			assert.True(t, f.IsContext(tid))
		})
		// Inner block exited; outer activation is still in force.
		assert.True(t, f.IsContext(tid))
	})
	assert.False(t, f.IsContext(tid))
}

func TestFlag_DoesNotCrossThreadIDs(t *testing.T) {
	var f Flag
	f.EnterContext(1, func() {
		assert.False(t, f.IsContext(2))
	})
}
