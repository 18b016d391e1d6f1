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
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContainerName(t *testing.T) {
	dir := t.TempDir()
	etcDir := filepath.Join(dir, "etc")
	require.NoError(t, os.MkdirAll(etcDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(etcDir, "os-release"),
		[]byte("ID=alpine\nVERSION_ID=3.19\n"), 0644))

	assert.Equal(t, "alpine-3.19", GenerateContainerName(dir))
}

func TestGenerateContainerNameNoVersion(t *testing.T) {
	dir := t.TempDir()
	etcDir := filepath.Join(dir, "etc")
	require.NoError(t, os.MkdirAll(etcDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(etcDir, "os-release"),
		[]byte("ID=gentoo\n"), 0644))

	assert.Equal(t, "gentoo", GenerateContainerName(dir))
}

func TestGenerateContainerNameMissingFile(t *testing.T) {
	assert.Equal(t, "linux-container", GenerateContainerName(t.TempDir()))
}

func TestRenderTableHeaders(t *testing.T) {
	out := RenderTable([]Entry{{Name: "alpine", PID: 1234}})
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "alpine")
	assert.Contains(t, out, "1234")
}

func TestGeneratedFallbackNameDeterministicPerSeed(t *testing.T) {
	a := generatedFallbackName(42)
	b := generatedFallbackName(42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, generatedFallbackName(43))
}

func TestIsValidContainerPIDRejectsInvalid(t *testing.T) {
	assert.False(t, IsValidContainerPID(0))
	assert.False(t, IsValidContainerPID(-1))
}
