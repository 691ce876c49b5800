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

//go:build fastpb.debug

// Package debug includes debugging helpers that are compiled in only under
// the fastpb.debug build tag, so that release builds of the hot path never
// pay for an invariant check.
package debug

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true when the decoder is built with the fastpb.debug tag.
const Enabled = true

var filter = flag.String("fastpb.filter", "", "regexp to filter debug trace lines by")

var pattern *regexp.Regexp

// Assert panics with a formatted message if cond is false.
//
// The decoder uses it for the limit_ptr identity after a pop, the arena's
// bump bound, and the unreachable specialist id, so that the fuzz targets
// in parse_fuzz_test.go fail loudly the instant one of those is violated,
// rather than producing a subtly wrong message further down the line.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("fastpb: internal assertion failed: "+format, args...))
	}
}

// Log writes a structured trace line to stderr, tagged with the id of the
// calling goroutine so interleaved traces from concurrent decodes can be
// told apart.
func Log(op, format string, args ...any) {
	if pattern == nil && *filter != "" {
		pattern = regexp.MustCompile(*filter)
	}

	line := fmt.Sprintf("[g%04d] %s: %s", routine.Goid(), op, fmt.Sprintf(format, args...))
	if pattern != nil && !pattern.MatchString(line) {
		return
	}

	var b strings.Builder
	b.WriteString(line)
	b.WriteByte('\n')
	_, _ = os.Stderr.WriteString(b.String())
}
