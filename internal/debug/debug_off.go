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

//go:build !fastpb.debug

package debug

// Enabled is false in release builds; every call below is a no-op the
// inliner removes entirely, so Assert/Log cost nothing on the hot path.
const Enabled = false

// Assert is a no-op outside of fastpb.debug builds.
func Assert(cond bool, format string, args ...any) {}

// Log is a no-op outside of fastpb.debug builds.
func Log(op, format string, args ...any) {}
