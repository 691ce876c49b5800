// Copyright 2025 The fastpb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocIsZeroed(t *testing.T) {
	a := New(64)
	p := a.Alloc(16)
	for i := range 16 {
		require.Zero(t, *p.ByteAdd(i).Ptr())
	}
}

func TestReallocGrowsInPlace(t *testing.T) {
	a := New(4096)
	p := a.Alloc(8)
	*p.Ptr() = 0xAB

	q := a.Realloc(p, 8, 16)
	require.Equal(t, p, q, "realloc of the most recent allocation should grow in place")
	require.Equal(t, byte(0xAB), *q.Ptr())
}

func TestReallocCopiesWhenNotMostRecent(t *testing.T) {
	a := New(4096)
	p := a.Alloc(8)
	*p.Ptr() = 0xCD
	_ = a.Alloc(8) // p is no longer the most recent allocation.

	q := a.Realloc(p, 8, 16)
	require.NotEqual(t, p, q)
	require.Equal(t, byte(0xCD), *q.Ptr())
}

func TestResetKeepsLargestBlock(t *testing.T) {
	a := New(64)
	a.Alloc(4096) // forces a second, larger block.
	before := a.cap

	a.Reset()
	require.Equal(t, before, a.cap)
	require.Equal(t, 1, len(a.blocks))
}

func TestGrowReservesSlack(t *testing.T) {
	a := New(64)
	require.GreaterOrEqual(t, a.end.ByteSub(a.next)+slack, 64)
	require.Equal(t, len(a.blocks[0])-slack, a.end.ByteSub(a.next))
}
