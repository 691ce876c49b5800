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

// Package tdp ("table-driven parser") holds the layout-table ABI that the
// dispatch core in internal/vm consumes. A schema compiler
// that turns a protobuf descriptor into a populated [Table] is out of scope
// for this module; internal/testschema hand-authors a handful of
// tables the way such a compiler would, for this repo's own tests.
package tdp

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Tag is a field tag -- (field_number << 3) | wire_type, varint-encoded --
// in the same bit pattern it appears in on the wire, truncated to at most
// two bytes. Table entries only ever need to compare against the first one
// or two tag bytes, so wider tags are represented by their
// matching FastEntry routing to the generic fallback instead.
type Tag uint16

// EncodeTag builds the wire encoding of (number, kind) as a [Tag].
//
// Panics if the encoded tag does not fit in one or two bytes; such fields
// never get a fasttable entry.
func EncodeTag(number protowire.Number, kind protowire.Type) Tag {
	var buf [10]byte
	b := protowire.AppendTag(buf[:0], number, kind)
	if len(b) > 2 {
		panic("fastpb: tag does not fit in the fast table")
	}

	var t Tag
	for i := len(b) - 1; i >= 0; i-- {
		t = t<<8 | Tag(b[i])
	}
	return t
}

// TagBytes returns how many bytes this tag occupies on the wire: 1 or 2.
func (t Tag) TagBytes() int {
	if t > 0xff {
		return 2
	}
	return 1
}

// WireType returns the wire type (low 3 bits of the first tag byte).
func (t Tag) WireType() protowire.Type {
	return protowire.Type(t & 0x7)
}

// FieldNumber decodes the field number this tag encodes, undoing the
// continuation-bit-stripped packing EncodeTag performs.
func (t Tag) FieldNumber() protowire.Number {
	b0 := uint64(t & 0xff)
	if t <= 0xff {
		return protowire.Number(b0 >> 3)
	}
	b1 := uint64(t>>8) & 0xff
	return protowire.Number(((b0 &^ 0x80) >> 3) | (b1 << 4))
}

// FastIndex returns this tag's index into a [FastTable], i.e. the low five
// bits of (tag_byte_0 >> 3).
func (t Tag) FastIndex() uint8 {
	return uint8(t) >> 3 & 0x1f
}

// Packed returns the tag that would be used for the packed encoding of the
// same field number (wire type LEN instead of VARINT/I32/I64): the
// wire-type bits are simply replaced with LEN, leaving the field-number
// bits untouched.
func (t Tag) Packed() Tag {
	return t&^0x7 | Tag(protowire.BytesType)
}
