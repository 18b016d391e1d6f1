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
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellCandidatesNoUser(t *testing.T) {
	candidates := shellCandidates("")
	for _, c := range candidates {
		assert.NotEqual(t, "su", c[0])
	}
}

func TestShellCandidatesWithUserPrefersSu(t *testing.T) {
	candidates := shellCandidates("alice")
	if _, err := os.Stat("/usr/bin/su"); err == nil {
		if len(candidates) > 0 {
			assert.Equal(t, []string{"su", "-l", "alice"}, candidates[0])
		}
	}
}

func TestNsKindsOrder(t *testing.T) {
	assert.Equal(t, []string{"ipc", "uts", "net", "pid", "mnt"}, nsKinds)
	assert.Equal(t, "mnt", nsKinds[len(nsKinds)-1])
}

func TestEnvWithTermPreservesExisting(t *testing.T) {
	t.Setenv("TERM", "screen-256color")
	env := envWithTerm()
	found := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			found++
			assert.Equal(t, "TERM=screen-256color", kv)
		}
	}
	assert.Equal(t, 1, found)
}

func TestEnvWithTermDefaultsWhenAbsent(t *testing.T) {
	os.Unsetenv("TERM")
	env := envWithTerm()
	found := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			found++
			assert.Equal(t, "TERM=xterm", kv)
		}
	}
	assert.Equal(t, 1, found)
}
