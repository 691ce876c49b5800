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

// Card is a field's cardinality, as seen by the fast-path specialists.
type Card uint8

const (
	// Singular is an optional, non-repeated field.
	Singular Card = iota
	// Oneof is a field that is one arm of a union.
	Oneof
	// Repeated is an unpacked repeated field.
	Repeated
	// Packed is the packed encoding of a repeated primitive field.
	Packed
)

// Data is the 64-bit packed field-data word every specialist is invoked
// with:
//
//	bits  0-15: expected tag pattern (1 or 2 bytes; high byte zero for 1-byte tags)
//	bits 16-23: submessage index into Table.Submsgs
//	bits 24-31: hasbit index (singular) or field number (oneof)
//	bits 32-47: oneof-case offset within the message (oneof only)
//	bits 48-63: field value offset within the message
//
// The dispatcher computes Data(entry) ^ uint64(tag) so that a matching tag
// makes the low byte (1-byte tags; the high tag byte is then junk) or the
// low 16 bits (2-byte tags) zero: the
// bitfields above the tag are unaffected by the xor, since the actual tag
// the wire supplied never has bits set above position 15.
type Data uint64

// NewData packs the five sub-fields of a field-data word.
func NewData(tag Tag, submsgIdx, hasbitOrNumber uint8, oneofCaseOffset uint16, valueOffset uint16) Data {
	return Data(tag) |
		Data(submsgIdx)<<16 |
		Data(hasbitOrNumber)<<24 |
		Data(oneofCaseOffset)<<32 |
		Data(valueOffset)<<48
}

// Tag extracts the expected tag pattern.
func (d Data) Tag() Tag { return Tag(d) }

// SubmsgIndex extracts the submessage index into Table.Submsgs.
func (d Data) SubmsgIndex() uint8 { return uint8(d >> 16) }

// HasbitIndex extracts the hasbit index (singular fields only).
func (d Data) HasbitIndex() uint8 { return uint8(d >> 24) }

// FieldNumber extracts the field number (oneof fields only).
func (d Data) FieldNumber() uint8 { return uint8(d >> 24) }

// OneofCaseOffset extracts the byte offset of the oneof case word.
func (d Data) OneofCaseOffset() uint32 { return uint32(uint16(d >> 32)) }

// ValueOffset extracts the byte offset of the field's value storage.
func (d Data) ValueOffset() uint32 { return uint32(uint16(d >> 48)) }

// CheckTag1 reports whether the low byte of d is zero, i.e. whether a
// 1-byte tag matched.
func (d Data) CheckTag1() bool { return d&0xff == 0 }

// CheckTag2 reports whether the low two bytes of d are zero, i.e. whether a
// 2-byte tag matched.
func (d Data) CheckTag2() bool { return d&0xffff == 0 }

// FlipPacked XORs bit 0x2 into the tag's wire type. This swaps VARINT (0)
// and LEN (2), so it maps a repeated varint field's expected tag to its
// packed counterpart and back; for I64 (1) and I32 (5) the result (3 and 7)
// never equals LEN, so a fixed-width field's flipped tag never matches.
func (d Data) FlipPacked() Data {
	return d ^ 0x2
}

// WithTag replaces the tag bits of d, keeping every other subfield intact.
// Used when a repeated specialist loads the next tag off the wire into its
// data word for the SAMEFIELD fast loop.
func (d Data) WithTag(t Tag) Data {
	return d&^0xffff | Data(t)
}
