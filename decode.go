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

// Package fastpb is a hand-specialized decoder core for the protobuf wire
// format: a per-message-type jump table drives straight-line parsing code
// for each field instead of the generic, reflection-driven field-by-field
// dispatch an ordinary unmarshaler uses.
//
// A [Table] describing a message type's layout is produced by a schema
// compiler, which is out of scope for this module; see internal/testschema
// for hand-built tables used by this repo's own tests.
package fastpb

import (
	"github.com/wirefast/fastpb/internal/arena"
	"github.com/wirefast/fastpb/internal/tdp"
	"github.com/wirefast/fastpb/internal/vm"
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// msgAddr is a raw message-record pointer, matching internal/vm and
// internal/tdp's representation so no conversion is needed at the boundary.
type msgAddr = xunsafe.Addr[byte]

// Table describes the layout of one message type (field offsets, the fast
// jump table, sub-message tables) that [Unmarshal] decodes against.
type Table = tdp.Table

// Options configures a decode.
type Options = vm.Options

// Error is returned by [Unmarshal] when decoding fails.
type Error = vm.ParseError

// Message is a decoded message record: an arena-owned pointer plus the
// table that describes its layout. Accessor functions in field.go read
// typed values out of it at caller-supplied offsets.
type Message struct {
	addr  msgAddr
	table *Table
	arena *arena.Arena
}

// Unmarshal decodes data against t, allocating the resulting message graph
// (including every sub-message, repeated array, and copied string) out of a
// freshly created arena.
//
// The returned [Message] and every value reachable from it remain valid for
// as long as the caller keeps a reference to it; once unreferenced, the
// whole graph is reclaimed together, in one GC pass, same as any other Go
// value owning its arena.
func Unmarshal(data []byte, t *Table, opts Options) (*Message, error) {
	a := arena.New(len(data) * 2)
	m, err := run(data, t, a, opts)
	if err != nil {
		return nil, err
	}
	return &Message{addr: m, table: t, arena: a}, nil
}

// run wraps a single top-level decode, translating [vm.State.Fail]'s panic
// into a normal error return.
func run(data []byte, t *Table, a *arena.Arena, opts Options) (addr msgAddr, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := vm.AsParseError(r)
			if !ok {
				panic(r)
			}
			err = pe
		}
	}()

	s := vm.NewState(data, a, opts)
	addr = tdp.NewMessage(a, t)
	if len(data) > 0 {
		s.RunMessage(addr, t)
	}
	return addr, nil
}
