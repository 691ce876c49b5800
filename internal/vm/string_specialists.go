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
	"unicode/utf8"
	"unsafe"

	"github.com/wirefast/fastpb/internal/tdp"
	"github.com/wirefast/fastpb/internal/xunsafe"
	"github.com/wirefast/fastpb/internal/zc"
)

// viewSize is the element size a string/bytes field occupies in a message
// record or repeated array: one [zc.View].
var viewSize = int(unsafe.Sizeof(zc.View{}))

// copyBuckets are the fixed widths the copy path bump-allocates into. A
// bucket copy reads and writes exactly the bucket's width, so it may read
// past the string's logical end; [State.copyString] uses a bucket only when
// both the input and the arena have that many bytes left. Strings longer
// than the largest bucket fall through to an exact, unpadded allocation
// (the "longstring" path).
var copyBuckets = [...]int{16, 32, 64, 128}

// runString handles the string/bytes specialists: unlike varint
// and fixed fields, strings have no packed form, so a fast-table mismatch
// always routes straight to the generic decoder.
func (s *State) runString(rel tdp.Specialist, m fieldAddr, hasbits *uint32, data tdp.Data) bool {
	card := tdp.Card(rel / 8)
	rem := rel % 8
	tagBytes := int(rem/4) + 1
	rem2 := rem % 4
	alias := rem2 >= 2
	validate := rem2%2 == 1

	if !checkTag(data, tagBytes) {
		return false
	}

	var farr repeatedArr
	dst := s.GetField(m, &data, hasbits, &farr, card, viewSize)

	for {
		if card == tdp.Repeated {
			dst = s.ResizeArray(dst, &farr, viewSize)
		}

		s.Ptr = s.Ptr.ByteAdd(tagBytes)
		n := s.LengthPrefix()

		var view zc.View
		if alias && s.Alias {
			view = zc.Alias(s.Ptr, n)
		} else {
			view = s.copyString(n)
		}
		if validate && !s.Options.AllowInvalidUTF8 && !utf8.Valid(view.Bytes()) {
			s.Fail(ErrInvalidUTF8)
		}
		s.Ptr = s.Ptr.ByteAdd(n)

		*xunsafe.Addr[zc.View](dst).Ptr() = view

		if card != tdp.Repeated {
			return true
		}

		next, tag, step := s.NextRepeated(dst, &farr, data, tagBytes, viewSize)
		dst = next
		switch step {
		case sameField:
			continue
		default:
			_ = tag
			return true
		}
	}
}

// copyString copies n bytes at s.Ptr into the arena, using the smallest
// copy bucket that fits when the source buffer has enough real bytes left
// to over-read safely and the arena has room for the whole bucket, and an
// exact allocation otherwise.
func (s *State) copyString(n int) zc.View {
	for _, bucket := range copyBuckets {
		if n > bucket {
			continue
		}
		if s.Avail() < bucket || s.Arena.Avail() < bucket {
			break
		}
		dst := s.Arena.Head()
		copy(unsafe.Slice(dst.Ptr(), bucket), unsafe.Slice(s.Ptr.Ptr(), bucket))
		s.Arena.Bump(bucket)
		return zc.Owned(dst, n)
	}

	if n > s.remaining(s.Ptr) {
		s.Fail(ErrBufferUnderrun)
	}
	dst := s.Arena.Alloc(n)
	copy(unsafe.Slice(dst.Ptr(), n), unsafe.Slice(s.Ptr.Ptr(), n))
	return zc.Owned(dst, n)
}

// Avail reports how many bytes remain in the current buffer segment past
// s.Ptr, for the bucketed copy path's over-read safety check.
func (s *State) Avail() int {
	return s.remaining(s.Ptr)
}
