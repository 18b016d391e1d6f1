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
package boot

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetEnvironmentKeepsTermWhenSet(t *testing.T) {
	t.Setenv("TERM", "screen")
	t.Setenv("SOME_LEFTOVER_VAR", "leftover")

	ResetEnvironment([]string{"tty1", "tty2"})

	assert.Equal(t, "screen", os.Getenv("TERM"))
	assert.Equal(t, "", os.Getenv("SOME_LEFTOVER_VAR"))
	assert.Equal(t, "/root", os.Getenv("HOME"))
	assert.Equal(t, "droidspaces", os.Getenv("container"))
	assert.Equal(t, "tty1 tty2", os.Getenv("container_ttys"))
	assert.NotEmpty(t, os.Getenv("PATH"))
}

func TestResetEnvironmentDefaultsTermWhenUnset(t *testing.T) {
	os.Unsetenv("TERM")

	ResetEnvironment(nil)

	assert.Equal(t, "xterm-256color", os.Getenv("TERM"))
	assert.Equal(t, "", os.Getenv("container_ttys"))
}
