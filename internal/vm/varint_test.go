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

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirefast/fastpb/internal/arena"
)

func newTestState(t *testing.T, data []byte) *State {
	t.Helper()
	return NewState(data, arena.New(256), Options{})
}

func mustFail(t *testing.T, fn func()) (code ErrorCode) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected State.Fail to panic")
		pe, ok := AsParseError(r)
		require.True(t, ok, "recovered value was not a parse error: %v", r)
		code = pe.Code
	}()
	fn()
	return
}

func TestVarintSingleByte(t *testing.T) {
	s := newTestState(t, []byte{0x2A})
	require.Equal(t, uint64(42), s.Varint())
	require.Equal(t, 1, s.Offset())
}

func TestVarintMultiByte(t *testing.T) {
	// 300 = 0b1_0010_1100 -> varint bytes 0xAC 0x02.
	s := newTestState(t, []byte{0xAC, 0x02})
	require.Equal(t, uint64(300), s.Varint())
}

func TestVarintMalformedTenthByte(t *testing.T) {
	// S7: FF FF FF FF FF FF FF FF FF 02 -> MalformedVarint.
	in := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x02}
	s := newTestState(t, in)
	code := mustFail(t, func() { s.Varint() })
	require.Equal(t, ErrMalformedVarint, code)
}

func TestVarintTruncated(t *testing.T) {
	s := newTestState(t, []byte{0x80}) // continuation bit set, no more bytes.
	code := mustFail(t, func() { s.Varint() })
	require.Equal(t, ErrMalformedVarint, code)
}

func TestSizeRejectsOverflow(t *testing.T) {
	// A 5-byte varint whose continuation byte is >= 8 encodes a size >= 2^31.
	s := newTestState(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x08})
	code := mustFail(t, func() { s.Size() })
	require.Equal(t, ErrSizeOverflow, code)
}

func TestLengthPrefixRejectsUnderrun(t *testing.T) {
	s := newTestState(t, []byte{0x05, 'a', 'b'}) // declares 5 bytes, only 2 follow.
	code := mustFail(t, func() { s.LengthPrefix() })
	require.Equal(t, ErrBufferUnderrun, code)
}
