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

package tdp

// Specialist names one row of the fast-path dispatch matrix: a field's
// cardinality, value kind, and tag width, encoded as a small integer rather
// than a function pointer. The table stores one of these plus a [Data] word;
// the dispatcher in internal/vm is a single function with a switch over this
// enum, so the dispatch table is pure data, with no cross-module
// pointer-identity requirements (no two builds of this package need to agree
// on function addresses, only on this enum's values).
type Specialist uint8

const (
	// Generic routes to the external fallback decoder (unknown fields,
	// groups the fallback chooses to handle itself, maps, wire types the
	// fast table doesn't specialize).
	Generic Specialist = iota

	// Varint specialists: {Singular,Oneof,Repeated,Packed} x
	// {Bool,Varint32,Zigzag32,Varint64,Zigzag64} x {1,2}-byte tag.
	VarintBase // + cardinality*10 + kind*2 + (tagBytes-1), see Specialist.Varint

	// Fixed-width specialists: {Singular,Oneof,Repeated,Packed} x
	// {Fixed32,Fixed64} x {1,2}-byte tag.
	FixedBase = VarintBase + 40

	// String specialists: {alias,copy} x {Singular,Oneof,Repeated} x
	// {1,2}-byte tag x {validate UTF-8, don't}.
	StringBase = FixedBase + 16

	// Sub-message specialists: {Singular,Oneof,Repeated} x {1,2}-byte tag x
	// {64,128,192,256,unbounded} size ceiling.
	SubmsgBase = StringBase + 24
)

// VarintKind selects which munging a varint specialist applies.
type VarintKind uint8

const (
	Bool VarintKind = iota
	Varint32
	Zigzag32
	Varint64
	Zigzag64
)

// Varint computes the Specialist id for a varint-field row.
func Varint(card Card, kind VarintKind, tagBytes int) Specialist {
	return VarintBase + Specialist(card)*10 + Specialist(kind)*2 + Specialist(tagBytes-1)
}

// FixedWidth selects which fixed-width specialist applies.
type FixedWidth uint8

const (
	Fixed32 FixedWidth = iota
	Fixed64
)

// Fixed computes the Specialist id for a fixed-width-field row.
func Fixed(card Card, width FixedWidth, tagBytes int) Specialist {
	return FixedBase + Specialist(card)*4 + Specialist(width)*2 + Specialist(tagBytes-1)
}

// SizeCeiling is the preallocation ceiling a sub-message specialist uses
//: allocate exactly this many bytes inline when the arena has
// room, instead of falling back to a general alloc sized to the exact
// sub-message layout.
type SizeCeiling uint8

const (
	Ceil64 SizeCeiling = iota
	Ceil128
	Ceil192
	Ceil256
	CeilUnbounded
)

// Submsg computes the Specialist id for a sub-message-field row.
func Submsg(card Card, tagBytes int, ceil SizeCeiling) Specialist {
	// Oneof/Repeated/Singular only; Packed is not meaningful for messages.
	return SubmsgBase + Specialist(card)*10 + Specialist(ceil)*2 + Specialist(tagBytes-1)
}

// String computes the Specialist id for a string/bytes-field row.
func String(card Card, tagBytes int, alias, validateUTF8 bool) Specialist {
	id := StringBase + Specialist(card)*8 + Specialist(tagBytes-1)*4
	if alias {
		id += 2
	}
	if validateUTF8 {
		id++
	}
	return id
}

// FastEntry is one entry of a [FastTable]: a specialist id plus the data
// word it is invoked with.
type FastEntry struct {
	Parse Specialist
	Data  Data
}

// FastTable is the 32-entry jump table indexed by a tag's low five bits
// after a right shift of three.
type FastTable [32]FastEntry

// Table is the immutable, per-message-type layout table the dispatch core
// consumes. A schema compiler producing these is out of
// scope for this module; see internal/testschema for hand-built
// examples used only by this repo's tests.
type Table struct {
	// Size is the byte size of the message record, excluding the internal
	// header (hasbits word) that precedes every record in the arena.
	Size uint32

	Fast FastTable

	// Submsgs holds the layout tables of this message's sub-message fields,
	// indexed by Data.SubmsgIndex().
	Submsgs []*Table

	// Fields maps every field number this message type knows about (not
	// just the ones with a fast-table slot) to a generic field spec, for
	// the fallback decoder. See internal/vm/generic.go.
	Fields map[uint32]*GenericField

	// Name is used only for diagnostics (error messages, debug logging);
	// it carries no ABI meaning.
	Name string
}

// GenericField describes a field for the slow, general-purpose fallback
// decoder.
type GenericField struct {
	Number   uint32
	Card     Card
	Kind     GenericKind
	Data     Data
	Submsg   *Table
	Preload  uint32 // Not read by the decoder; arrays start at InitialArrayCap.
}

// GenericKind is the wire-level shape of a field, for the generic decoder.
type GenericKind uint8

const (
	KindVarint GenericKind = iota
	KindZigzag32
	KindZigzag64
	KindFixed32
	KindFixed64
	KindBytes
	KindString
	KindMessage
	KindGroup
)
