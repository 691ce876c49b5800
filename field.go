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

package fastpb

import (
	"math"

	"github.com/wirefast/fastpb/internal/tdp"
	"github.com/wirefast/fastpb/internal/xunsafe"
	"github.com/wirefast/fastpb/internal/zc"
)

// Table returns the layout table this message was decoded against.
func (m *Message) Table() *Table {
	return m.table
}

// HasField reports whether the singular field at the given hasbit index was
// present on the wire.
func (m *Message) HasField(hasbit uint8) bool {
	return tdp.HasBit(m.addr, hasbit)
}

// fieldAt returns the address of m's field storage at the given byte
// offset, as recorded in a [Table]'s layout.
func (m *Message) fieldAt(offset uint32) xunsafe.Addr[byte] {
	return tdp.FieldAddr(m.addr, offset)
}

// OneofCase reads the field number most recently written to a oneof's case
// word at offset, or 0 if no arm of that oneof has ever been decoded.
func (m *Message) OneofCase(offset uint32) uint32 {
	return *xunsafe.Addr[uint32](m.fieldAt(offset)).Ptr()
}

// Bool reads a bool field at offset.
func (m *Message) Bool(offset uint32) bool {
	return *m.fieldAt(offset).Ptr() != 0
}

// Int32 reads an int32/sint32/sfixed32 field at offset.
func (m *Message) Int32(offset uint32) int32 {
	return int32(*xunsafe.Addr[uint32](m.fieldAt(offset)).Ptr())
}

// Uint32 reads a uint32/fixed32 field at offset.
func (m *Message) Uint32(offset uint32) uint32 {
	return *xunsafe.Addr[uint32](m.fieldAt(offset)).Ptr()
}

// Int64 reads an int64/sint64/sfixed64 field at offset.
func (m *Message) Int64(offset uint32) int64 {
	return int64(*xunsafe.Addr[uint64](m.fieldAt(offset)).Ptr())
}

// Uint64 reads a uint64/fixed64 field at offset.
func (m *Message) Uint64(offset uint32) uint64 {
	return *xunsafe.Addr[uint64](m.fieldAt(offset)).Ptr()
}

// Float32 reads a float field at offset.
func (m *Message) Float32(offset uint32) float32 {
	return math.Float32frombits(m.Uint32(offset))
}

// Float64 reads a double field at offset.
func (m *Message) Float64(offset uint32) float64 {
	return math.Float64frombits(m.Uint64(offset))
}

// String reads a string field at offset.
func (m *Message) String(offset uint32) string {
	return m.view(offset).String()
}

// Bytes reads a bytes field at offset.
func (m *Message) Bytes(offset uint32) []byte {
	return m.view(offset).Bytes()
}

func (m *Message) view(offset uint32) zc.View {
	return *xunsafe.Addr[zc.View](m.fieldAt(offset)).Ptr()
}

// Submessage reads a sub-message field at offset, wrapping it with the
// given sub-table. Returns nil if the field was never set.
func (m *Message) Submessage(offset uint32, sub *Table) *Message {
	p := *xunsafe.Addr[xunsafe.Addr[byte]](m.fieldAt(offset)).Ptr()
	if p.IsNil() {
		return nil
	}
	return &Message{addr: p, table: sub, arena: m.arena}
}

// Array is a typed view over a repeated field's backing store.
type Array struct {
	arr *tdp.Array
}

// array reads the array header at offset; ok is false if the field was
// never set (no elements were ever decoded).
func (m *Message) array(offset uint32) (Array, bool) {
	p := *xunsafe.Addr[xunsafe.Addr[tdp.Array]](m.fieldAt(offset)).Ptr()
	if p.IsNil() {
		return Array{}, false
	}
	return Array{arr: p.Ptr()}, true
}

// Len returns the number of elements in a.
func (a Array) Len() int {
	if a.arr == nil {
		return 0
	}
	return int(a.arr.Len)
}

func (a Array) elem(i int) xunsafe.Addr[byte] {
	return a.arr.Data.ByteAdd(i * int(a.arr.ElemSize))
}

// RepeatedUint32 reads a repeated fixed32/uint32 field at offset.
func (m *Message) RepeatedUint32(offset uint32) []uint32 {
	a, ok := m.array(offset)
	if !ok {
		return nil
	}
	out := make([]uint32, a.Len())
	for i := range out {
		out[i] = *xunsafe.Addr[uint32](a.elem(i)).Ptr()
	}
	return out
}

// RepeatedUint64 reads a repeated fixed64/uint64 field at offset.
func (m *Message) RepeatedUint64(offset uint32) []uint64 {
	a, ok := m.array(offset)
	if !ok {
		return nil
	}
	out := make([]uint64, a.Len())
	for i := range out {
		out[i] = *xunsafe.Addr[uint64](a.elem(i)).Ptr()
	}
	return out
}

// RepeatedString reads a repeated string/bytes field at offset.
func (m *Message) RepeatedString(offset uint32) []string {
	a, ok := m.array(offset)
	if !ok {
		return nil
	}
	out := make([]string, a.Len())
	for i := range out {
		out[i] = (*xunsafe.Addr[zc.View](a.elem(i)).Ptr()).String()
	}
	return out
}

// RepeatedMessage reads a repeated sub-message field at offset.
func (m *Message) RepeatedMessage(offset uint32, sub *Table) []*Message {
	a, ok := m.array(offset)
	if !ok {
		return nil
	}
	out := make([]*Message, a.Len())
	for i := range out {
		p := *xunsafe.Addr[xunsafe.Addr[byte]](a.elem(i)).Ptr()
		out[i] = &Message{addr: p, table: sub, arena: m.arena}
	}
	return out
}
