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

import "github.com/wirefast/fastpb/internal/debug"

// IsDone reports whether s.Ptr has reached the current (sub)message's
// boundary.
//
// This module decodes a single, already-fully-buffered input, so there is
// no multi-segment buffer to refill: an overrun past the
// boundary can only mean the current message is done, or that the wire
// bytes are malformed. There is accordingly no "refill_or_done" external
// hook; any caller reaching a point where [State.IsDone] is true but the
// frame is not actually finished treats that as [ErrBufferUnderrun].
func (s *State) IsDone() bool {
	return s.Ptr >= s.LimitPtr
}

// FrameDone reports whether the current frame has been read exactly to its
// boundary (as opposed to IsDone being true because of a wire-format bug).
func (s *State) FrameDone() bool {
	return s.Ptr.ByteSub(s.End) == s.Limit
}

// Push installs a new sub-message boundary ending at s.Ptr+length, and
// returns a restore cookie for [State.Pop].
func (s *State) Push(length int) int {
	newLimitPtr := s.Ptr.Add(length)
	newLimit := newLimitPtr.ByteSub(s.End)
	if newLimit > s.Limit {
		// The declared sub-message would extend past the boundary its
		// enclosing message is itself bound by.
		s.Fail(ErrBufferUnderrun)
	}

	delta := s.Limit - newLimit
	s.Limit = newLimit
	s.LimitPtr = newLimitPtr
	return delta
}

// Pop restores the limit saved by the matching [State.Push].
func (s *State) Pop(delta int) {
	s.Limit += delta
	s.LimitPtr = s.End.ByteAdd(s.Limit)
	debug.Assert(s.LimitPtr == s.End.ByteAdd(min(0, s.Limit)),
		"limit_ptr invariant violated after pop: %v != %v", s.LimitPtr, s.End.ByteAdd(min(0, s.Limit)))
}

// boundsPad is the slack fastBoundsCheck allows past end, the same size as
// the arena's own reserved slack.
const boundsPad = 16

// uintptrLike is satisfied by xunsafe.Addr[byte] (kept generic-free here to
// avoid importing the xunsafe package just for a type constraint).
type uintptrLike interface {
	~uintptr
}

// fastBoundsCheck is the padded bounds check, tolerating up to boundsPad
// bytes past end. Nothing in this package calls it: the copy path in
// [State.copyString] checks the input's remaining bytes directly.
func fastBoundsCheck[T uintptrLike](p, end T, length int) bool {
	return boundsCheckImpl(p, end, length, boundsPad)
}

// exactBoundsCheck is the unpadded bounds check.
func exactBoundsCheck[T uintptrLike](p, end T, length int) bool {
	return boundsCheckImpl(p, end, length, 0)
}

// boundsCheckImpl reports whether [p, p+length) overflows past end+pad,
// using unsigned arithmetic so that a length large enough to overflow the
// address space is also rejected.
func boundsCheckImpl[T uintptrLike](p, end T, length int, pad int) bool {
	uptr := uint64(p)
	uend := uint64(end) + uint64(pad)
	res := uptr + uint64(length)
	return res < uptr || res > uend
}
