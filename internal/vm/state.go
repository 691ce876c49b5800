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
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wirefast/fastpb/internal/arena"
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// Options configures a decode.
type Options struct {
	// MaxDepth bounds sub-message nesting. Zero means the default of 100.
	MaxDepth int
	// AllowAlias permits string/bytes fields to borrow from the input
	// buffer instead of copying into the arena.
	AllowAlias bool
	// AllowInvalidUTF8 disables UTF-8 validation of proto3 string fields,
	// treating them like bytes fields instead.
	AllowInvalidUTF8 bool
	// DiscardUnknown is not read by the decoder: the generic fallback
	// always skips unrecognized fields and never records them, whether or
	// not this is set.
	DiscardUnknown bool
}

const defaultMaxDepth = 100

// State is the decoder's parser state, threaded through
// every call in the dispatch trampoline and every specialist.
//
// This is kept as one flat struct rather than split across register-sized
// halves; see DESIGN.md for the tradeoff.
type State struct {
	Ptr xunsafe.Addr[byte] // Current read cursor.
	End xunsafe.Addr[byte] // One past the last valid byte of the *current* buffer segment.

	// Limit is the offset from End at which the current (sub)message ends;
	// negative while inside a nested sub-message extending past the
	// physical end of the buffer.
	Limit int
	// LimitPtr = End + min(0, Limit); recomputed on every push/pop.
	LimitPtr xunsafe.Addr[byte]

	Alias    bool             // May string fields alias the input buffer?
	EndGroup protowire.Number // Expected closing group's field number, or 0 if not in a group.
	Depth    int              // Remaining recursion budget.

	groupEnded bool // Set by the generic decoder when it consumes a matching END_GROUP tag.

	Arena *arena.Arena
	Src   xunsafe.Addr[byte] // Start of the original input, for offset math.

	Options Options
}

// NewState creates decoder state over src, ready to decode a single
// top-level message.
func NewState(src []byte, a *arena.Arena, opts Options) *State {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	var start xunsafe.Addr[byte]
	if len(src) > 0 {
		start = xunsafe.Of(&src[0])
	}
	end := start.Add(len(src))

	return &State{
		Ptr:      start,
		End:      end,
		Limit:    0,
		LimitPtr: end,
		Alias:    opts.AllowAlias,
		EndGroup: 0,
		Depth:    maxDepth,
		Arena:    a,
		Src:      start,
		Options:  opts,
	}
}

// Offset returns s.Ptr's distance from the start of the original input.
func (s *State) Offset() int {
	return s.Ptr.ByteSub(s.Src)
}

// Len returns the number of bytes remaining before s.End.
func (s *State) Len() int {
	return s.End.ByteSub(s.Ptr)
}

// Fail aborts the decode with the given error code, unwinding to the
// top-level recover() that calls [AsParseError].
func (s *State) Fail(code ErrorCode) {
	panic(failSignal{ParseError{Code: code, Offset: s.Offset()}})
}
