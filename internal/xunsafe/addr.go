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

// Package xunsafe provides a typed raw-address type used to keep the
// decoder's hot state in registers rather than behind heap pointers.
//
// Plain Go pointers carry GC metadata that forces the compiler to treat
// every load/store as a potential safepoint. An [Addr] is just an integer;
// arithmetic on it is free, and it is only turned back into a pointer at the
// point of use via [Addr.Ptr].
package xunsafe

import (
	"fmt"
	"unsafe"
)

// Addr is a typed raw address, i.e. a pointer that does not keep its
// referent alive and does not trigger write barriers when copied.
//
// The zero value is the null address.
type Addr[T any] uintptr

// Of returns the address of p.
func Of[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// Ptr turns this address back into a pointer.
//
// The caller is responsible for ensuring the address is still valid; an
// Addr does not keep anything alive on its own.
//
//go:nosplit
func (a Addr[T]) Ptr() *T {
	return (*T)(unsafe.Pointer(a))
}

// IsNil returns whether this is the null address.
func (a Addr[T]) IsNil() bool {
	return a == 0
}

// Add advances this address by n elements of type T.
func (a Addr[T]) Add(n int) Addr[T] {
	var zero T
	return a + Addr[T](n*int(unsafe.Sizeof(zero)))
}

// ByteAdd advances this address by n raw bytes, ignoring the size of T.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub returns the number of elements of type T between b and a (a - b).
func (a Addr[T]) Sub(b Addr[T]) int {
	var zero T
	return int(a-b) / int(unsafe.Sizeof(zero))
}

// ByteSub returns the raw byte distance between b and a (a - b).
func (a Addr[T]) ByteSub(b Addr[T]) int {
	return int(a - b)
}

// Format implements [fmt.Formatter].
func (a Addr[T]) Format(s fmt.State, verb rune) {
	fmt.Fprintf(s, "%#x", uintptr(a))
}
