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

// Package zc provides the zero-copy string view used by the string
// specialists.
package zc

import (
	"unsafe"

	"github.com/wirefast/fastpb/internal/xunsafe"
)

// View is a length-delimited byte run that is either aliased into the
// caller's input buffer or owned by the decode's arena.
//
// The ownership distinction is explicit rather than hidden behind a global
// flag: a View carries its own Aliased
// bit, set once at construction, so that a later reader of a decoded
// message never has to consult decoder-wide state (which may no longer
// exist) to know whether it may hold onto the bytes past the lifetime of
// the input buffer.
type View struct {
	data    xunsafe.Addr[byte]
	length  uint32
	Aliased bool
}

// Alias constructs a View borrowing bytes directly from the input buffer.
func Alias(p xunsafe.Addr[byte], n int) View {
	return View{data: p, length: uint32(n), Aliased: true}
}

// Owned constructs a View over bytes copied into the arena.
func Owned(p xunsafe.Addr[byte], n int) View {
	return View{data: p, length: uint32(n), Aliased: false}
}

// Len returns the length of this view in bytes.
func (v View) Len() int { return int(v.length) }

// Bytes returns the underlying bytes. The returned slice aliases either the
// input buffer or the arena, per v.Aliased; it must not be retained past
// whichever of those two the caller is relying on.
func (v View) Bytes() []byte {
	if v.length == 0 {
		return nil
	}
	return unsafe.Slice(v.data.Ptr(), v.length)
}

// String returns the view's bytes as a Go string without copying them: like
// the slice from Bytes, the string shares memory with the input buffer or
// the arena, per v.Aliased.
func (v View) String() string {
	if v.length == 0 {
		return ""
	}
	return unsafe.String(v.data.Ptr(), v.length)
}
