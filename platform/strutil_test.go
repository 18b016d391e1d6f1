//
// Copyright 2026 Droidspaces contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\nb\nc"))
	assert.Equal(t, []string{""}, splitLines(""))
}

func TestParsePropLine(t *testing.T) {
	key, val, ok := parsePropLine("[net.dns1]: [8.8.8.8]")
	assert.True(t, ok)
	assert.Equal(t, "net.dns1", key)
	assert.Equal(t, "8.8.8.8", val)
}

func TestParsePropLineEmptyValue(t *testing.T) {
	key, val, ok := parsePropLine("[ro.debuggable]: []")
	assert.True(t, ok)
	assert.Equal(t, "ro.debuggable", key)
	assert.Equal(t, "", val)
}

func TestParsePropLineMalformed(t *testing.T) {
	_, _, ok := parsePropLine("not a prop line")
	assert.False(t, ok)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, containsFold("Android SELinux", "selinux"))
	assert.False(t, containsFold("Android SELinux", "seccomp"))
}

func TestContainsString(t *testing.T) {
	assert.True(t, containsString([]string{"a", "b"}, "b"))
	assert.False(t, containsString([]string{"a", "b"}, "c"))
	assert.False(t, containsString(nil, "c"))
}
