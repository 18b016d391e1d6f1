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
package lifecycle

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchitectureMatchesKnownLabels(t *testing.T) {
	want := map[string]string{
		"amd64": "x86_64",
		"386":   "i686",
		"arm64": "aarch64",
		"arm":   "armv7l",
	}
	if label, ok := want[runtime.GOARCH]; ok {
		assert.Equal(t, label, Architecture())
	} else {
		assert.Equal(t, runtime.GOARCH, Architecture())
	}
}

func TestOsReleaseValue(t *testing.T) {
	v, ok := osReleaseValue(`PRETTY_NAME="Alpine Linux v3.19"`, "PRETTY_NAME")
	assert.True(t, ok)
	assert.Equal(t, "Alpine Linux v3.19", v)

	_, ok = osReleaseValue("ID=alpine", "PRETTY_NAME")
	assert.False(t, ok)
}

func TestOsReleaseValueUnquoted(t *testing.T) {
	v, ok := osReleaseValue("ID=alpine", "ID")
	assert.True(t, ok)
	assert.Equal(t, "alpine", v)
}

func TestHostPrettyNameFallback(t *testing.T) {
	// The real /etc/os-release is whatever the test host has; just
	// assert the function never panics and returns a non-empty string.
	name := HostPrettyName()
	assert.NotEmpty(t, name)
}
