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

package fastpb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirefast/fastpb"
	"github.com/wirefast/fastpb/internal/testschema"
)

// fuzzSeeds is shared across every table below: the same byte sequences the
// table-specific tests in decode_test.go exercise, plus a few inputs picked
// to reach truncation and malformed-varint handling no matter which
// specialist the table under test dispatches to.
var fuzzSeeds = [][]byte{
	{},
	{0x08, 0x2A},
	{0x12, 0x03, 'f', 'o', 'o'},
	{0x22, 0x04, 1, 2, 3, 4},
	{0x0A, 0x80, 0x01},
	{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x02},
	{0x80},
	{0x0B, 0x08, 0x2A, 0x0C},
	{0x80, 0x01, 0x63},
}

func FuzzUnmarshalScalars(f *testing.F)       { fuzzTable(f, testschema.Scalars) }
func FuzzUnmarshalRepeatedInt32(f *testing.F) { fuzzTable(f, testschema.RepeatedInt32) }
func FuzzUnmarshalLongString(f *testing.F)    { fuzzTable(f, testschema.LongString) }
func FuzzUnmarshalNested(f *testing.F)        { fuzzTable(f, testschema.Nested) }
func FuzzUnmarshalOneof(f *testing.F)         { fuzzTable(f, testschema.Oneof) }
func FuzzUnmarshalGroup(f *testing.F)         { fuzzTable(f, testschema.Group) }
func FuzzUnmarshalUTF8String(f *testing.F)    { fuzzTable(f, testschema.UTF8String) }

// fuzzTable decodes arbitrary input against t under four option sets: the
// defaults, aliasing on, UTF-8 validation off, and a depth budget of 4.
// Any failure must surface as a
// [fastpb.Error] recovered by [fastpb.Unmarshal] itself; an uncontrolled
// panic escaping it fails the fuzz run.
func fuzzTable(f *testing.F, t *fastpb.Table) {
	f.Helper()
	for _, seed := range fuzzSeeds {
		f.Add(seed)
	}

	f.Fuzz(func(t2 *testing.T, data []byte) {
		ctx := fastpb.NewContext()
		defer ctx.Free()

		for _, opts := range []fastpb.Options{
			{},
			{AllowAlias: true},
			{AllowInvalidUTF8: true},
			{MaxDepth: 4},
		} {
			_, err := ctx.Unmarshal(data, t, opts)
			if err != nil {
				var perr *fastpb.Error
				require.ErrorAs(t2, err, &perr)
			}
		}
	})
}
