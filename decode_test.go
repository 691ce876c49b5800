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

package fastpb_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wirefast/fastpb"
	"github.com/wirefast/fastpb/internal/testschema"
)

func TestUnmarshalSingularInt32(t *testing.T) {
	// S1: 08 2A against {field 1: int32} -> field 1 = 42, hasbit 0 set.
	m, err := fastpb.Unmarshal([]byte{0x08, 0x2A}, testschema.Scalars, fastpb.Options{})
	require.NoError(t, err)
	require.True(t, m.HasField(0))
	require.Equal(t, int32(42), m.Int32(testschema.ScalarsField1Offset))
}

func TestUnmarshalAliasedString(t *testing.T) {
	// S2: 12 03 66 6F 6F against {field 2: string}, alias=true -> view
	// ("foo", 3) pointing into the input buffer.
	in := []byte{0x12, 0x03, 'f', 'o', 'o'}
	m, err := fastpb.Unmarshal(in, testschema.Scalars, fastpb.Options{AllowAlias: true})
	require.NoError(t, err)
	require.Equal(t, "foo", m.String(testschema.ScalarsField2Offset))

	got := m.Bytes(testschema.ScalarsField2Offset)
	require.True(t, len(got) > 0 && &got[0] == &in[2], "aliased string must point into the input buffer")
}

func TestUnmarshalCopiedString(t *testing.T) {
	in := []byte{0x12, 0x03, 'f', 'o', 'o'}
	m, err := fastpb.Unmarshal(in, testschema.Scalars, fastpb.Options{AllowAlias: false})
	require.NoError(t, err)
	require.Equal(t, "foo", m.String(testschema.ScalarsField2Offset))

	got := m.Bytes(testschema.ScalarsField2Offset)
	require.True(t, len(got) == 0 || &got[0] != &in[2], "copied string must not alias the input buffer")
}

func TestUnmarshalPackedFixed32(t *testing.T) {
	// S3: 22 04 01 02 03 04 (packed repeated fixed32 into field 4) -> [1,2,3,4].
	in := []byte{0x22, 0x04, 1, 2, 3, 4}
	m, err := fastpb.Unmarshal(in, testschema.Scalars, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3, 4}, m.RepeatedUint32(testschema.ScalarsField4Offset))
}

func TestUnmarshalRepeatedUnpackedInt32(t *testing.T) {
	// S4: "08 01" repeated 8 times for a repeated int32 field (tag 08) ->
	// array [1,1,1,1,1,1,1,1], capacity >= 8.
	var in []byte
	for range 8 {
		in = append(in, 0x08, 0x01)
	}
	m, err := fastpb.Unmarshal(in, testschema.RepeatedInt32, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 1, 1, 1, 1, 1, 1, 1}, m.RepeatedUint32(testschema.RepeatedInt32Offset))
}

func TestUnmarshalLongString(t *testing.T) {
	// S5: 0A 80 01 <128 bytes of 'x'> against string field 1 -> returns size
	// 128. A 128-byte string fits the largest (128-byte) copy bucket, so it
	// does not take the long-string path; only longer strings do.
	payload := strings.Repeat("x", 128)
	in := append([]byte{0x0A, 0x80, 0x01}, payload...)
	m, err := fastpb.Unmarshal(in, testschema.LongString, fastpb.Options{AllowAlias: false})
	require.NoError(t, err)
	require.Equal(t, payload, m.String(testschema.LongStringOffset))
}

func TestUnmarshalRecursionTooDeep(t *testing.T) {
	// S6: 101 nested sub-messages of field 1 (message type) -> RecursionTooDeep.
	inner := []byte{} // innermost message is empty.
	for range 101 {
		buf := []byte{0x0A}
		buf = protowire.AppendVarint(buf, uint64(len(inner)))
		buf = append(buf, inner...)
		inner = buf
	}

	_, err := fastpb.Unmarshal(inner, testschema.Nested, fastpb.Options{})
	require.Error(t, err)
	var perr *fastpb.Error
	require.ErrorAs(t, err, &perr)
}

func TestUnmarshalMalformedVarint(t *testing.T) {
	// S7: FF FF FF FF FF FF FF FF FF 02 -> MalformedVarint.
	in := append([]byte{0x08}, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x02)
	_, err := fastpb.Unmarshal(in, testschema.Scalars, fastpb.Options{})
	require.Error(t, err)
}

func TestUnmarshalOneofFirstArmOnly(t *testing.T) {
	in := []byte{0x08, 0x2A}
	m, err := fastpb.Unmarshal(in, testschema.Oneof, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, uint32(1), m.OneofCase(testschema.OneofCaseOffset))
	require.Equal(t, int32(42), m.Int32(testschema.OneofField1Offset))
}

func TestUnmarshalOneofSecondArmOverridesCase(t *testing.T) {
	// Field 1 (int32 arm) then field 2 (string arm): the case word ends up
	// naming whichever arm was decoded last, field number 2, even though
	// field 1's storage still holds the value it was given.
	in := []byte{0x08, 0x2A, 0x12, 0x03, 'f', 'o', 'o'}
	m, err := fastpb.Unmarshal(in, testschema.Oneof, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, uint32(2), m.OneofCase(testschema.OneofCaseOffset))
	require.Equal(t, "foo", m.String(testschema.OneofField2Offset))
}

func TestUnmarshalTwoByteTag(t *testing.T) {
	// Field 16 is the lowest field number whose tag needs two bytes
	// (0x80 0x01).
	in := []byte{0x80, 0x01, 0x63}
	m, err := fastpb.Unmarshal(in, testschema.TwoByteTag, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, int32(99), m.Int32(testschema.TwoByteTagOffset))
}

func TestUnmarshalInvalidUTF8Rejected(t *testing.T) {
	in := []byte{0x0A, 0x01, 0xFF} // lone continuation byte: not valid UTF-8.
	_, err := fastpb.Unmarshal(in, testschema.UTF8String, fastpb.Options{})
	require.Error(t, err)
}

func TestUnmarshalGroup(t *testing.T) {
	// START_GROUP (0x0B), one field of the group body (0x08 0x2A), then
	// END_GROUP (0x0C). The outer table has no fast-table entry for the
	// group field, so this round-trips entirely through the generic
	// decoder.
	in := []byte{0x0B, 0x08, 0x2A, 0x0C}
	m, err := fastpb.Unmarshal(in, testschema.Group, fastpb.Options{})
	require.NoError(t, err)
	body := m.Submessage(testschema.GroupFieldOffset, testschema.GroupBody)
	require.NotNil(t, body)
	require.Equal(t, int32(42), body.Int32(testschema.GroupBodyField1Offset))
}

func TestUnmarshalPackedBytesAgainstUnpackedSchema(t *testing.T) {
	// RepeatedInt32's only fast-table entry expects the unpacked wire type
	// for field 1; a packed-encoded payload for the same field number flips
	// to the packed specialist via Data.FlipPacked instead of falling
	// through to the generic decoder.
	in := []byte{0x0A, 0x03, 0x01, 0x02, 0x03}
	m, err := fastpb.Unmarshal(in, testschema.RepeatedInt32, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, m.RepeatedUint32(testschema.RepeatedInt32Offset))
}

func TestUnmarshalPackedAndUnpackedAgreeOnSameValues(t *testing.T) {
	packed := []byte{0x0A, 0x03, 0x01, 0x02, 0x03}
	var unpacked []byte
	for _, v := range []byte{1, 2, 3} {
		unpacked = append(unpacked, 0x08, v)
	}

	pm, err := fastpb.Unmarshal(packed, testschema.RepeatedInt32, fastpb.Options{})
	require.NoError(t, err)
	um, err := fastpb.Unmarshal(unpacked, testschema.RepeatedInt32, fastpb.Options{})
	require.NoError(t, err)

	require.Equal(t, um.RepeatedUint32(testschema.RepeatedInt32Offset), pm.RepeatedUint32(testschema.RepeatedInt32Offset))
}

func TestUnmarshalArrayGrowsBeyondInitialCapacity(t *testing.T) {
	// The initial repeated-array capacity is 8; 20 elements force two Grow
	// doublings (8 -> 16 -> 32), exercising relocation and CommitLen's
	// length bookkeeping afterward.
	var in []byte
	want := make([]uint32, 20)
	for i := range want {
		in = append(in, 0x08, byte(i+1))
		want[i] = uint32(i + 1)
	}
	m, err := fastpb.Unmarshal(in, testschema.RepeatedInt32, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, want, m.RepeatedUint32(testschema.RepeatedInt32Offset))
}

func TestContextReuse(t *testing.T) {
	ctx := fastpb.NewContext()
	defer ctx.Free()

	m, err := ctx.Unmarshal([]byte{0x08, 0x2A}, testschema.Scalars, fastpb.Options{})
	require.NoError(t, err)
	require.Equal(t, int32(42), m.Int32(testschema.ScalarsField1Offset))
}
