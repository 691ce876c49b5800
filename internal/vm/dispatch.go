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
	"github.com/wirefast/fastpb/internal/debug"
	"github.com/wirefast/fastpb/internal/tdp"
)

// RunMessage decodes the body of a single message record, dispatching each
// field to its fast-path specialist.
//
// Go gives no tail-call guarantee, so rather than have every specialist
// tail-call the next one, dispatch is this one loop, and specialists return
// control to it instead of calling back into it themselves. Recursion only
// happens for sub-messages (bounded by s.Depth); same-level field-to-field
// transitions -- including a field with thousands of repeated entries --
// never grow the Go call stack.
func (s *State) RunMessage(m fieldAddr, t *tdp.Table) {
	var hasbits uint32

	for {
		if s.groupEnded {
			s.groupEnded = false
			tdp.MergeHasbits(m, hasbits)
			return
		}

		if s.IsDone() {
			if s.FrameDone() {
				tdp.MergeHasbits(m, hasbits)
				return
			}
			s.Fail(ErrBufferUnderrun)
		}

		tag := s.peekTag()
		idx := tag.FastIndex()
		entry := t.Fast[idx]
		data := entry.Data ^ tdp.Data(tag)

		if !s.runSpecialist(entry.Parse, m, t, &hasbits, data) {
			s.runGeneric(m, t, &hasbits)
		}
	}
}

// runSpecialist dispatches to one row of the fast-path matrix using a
// closed enum of specialist identifiers rather than function pointers.
// Returns false if the specialist determined the fast-table slot did
// not actually match the field on the wire (a 5-bit index collision, or
// simply slot 0 / an unpopulated entry), in which case the caller must
// fall back to the generic decoder.
func (s *State) runSpecialist(id tdp.Specialist, m fieldAddr, t *tdp.Table, hasbits *uint32, data tdp.Data) bool {
	switch {
	case id == tdp.Generic:
		return false

	case id >= tdp.VarintBase && id < tdp.FixedBase:
		return s.runVarint(id-tdp.VarintBase, m, hasbits, data)

	case id >= tdp.FixedBase && id < tdp.StringBase:
		return s.runFixed(id-tdp.FixedBase, m, hasbits, data)

	case id >= tdp.StringBase && id < tdp.SubmsgBase:
		return s.runString(id-tdp.StringBase, m, hasbits, data)

	case id >= tdp.SubmsgBase:
		return s.runSubmsg(id-tdp.SubmsgBase, m, t, hasbits, data)

	default:
		debug.Assert(false, "unreachable specialist id %d", id)
		return false
	}
}

// fieldAddr is an alias kept local to this package for readability; the
// underlying type is xunsafe.Addr[byte], i.e. a message record pointer.
type fieldAddr = addrByte
