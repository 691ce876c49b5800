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
	"github.com/wirefast/fastpb/internal/arena"
	"github.com/wirefast/fastpb/internal/sync2"
)

var arenaPool = sync2.Pool[arena.Arena]{
	New:   func() *arena.Arena { return arena.New(4096) },
	Reset: func(a *arena.Arena) { a.Reset() },
}

// Context amortizes arena allocation across many decodes of the same
// message type, the way a long-running server handling a steady stream of
// requests would: one Context, reused decode after decode, instead of a
// fresh arena (and its first-block allocation) every time.
type Context struct {
	a    *arena.Arena
	drop func()
}

// NewContext acquires a pooled arena for reuse across multiple decodes.
func NewContext() *Context {
	a, drop := arenaPool.Get()
	return &Context{a: a, drop: drop}
}

// Unmarshal decodes data against t using this context's arena instead of
// allocating a fresh one.
func (c *Context) Unmarshal(data []byte, t *Table, opts Options) (*Message, error) {
	addr, err := run(data, t, c.a, opts)
	if err != nil {
		return nil, err
	}
	return &Message{addr: addr, table: t, arena: c.a}, nil
}

// Free returns the context's arena to the pool and invalidates every
// [Message] previously decoded through it; those messages must not be used
// again after this call.
func (c *Context) Free() {
	if c.drop != nil {
		c.drop()
	}
	c.a = nil
	c.drop = nil
}
