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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimNewline(t *testing.T) {
	assert.Equal(t, "1234", trimNewline("1234\n"))
	assert.Equal(t, "1234", trimNewline("1234\r\n"))
	assert.Equal(t, "1234", trimNewline("1234"))
	assert.Equal(t, "", trimNewline("\n"))
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 0, indexOf("systemd", "systemd"))
	assert.Equal(t, 5, indexOf("/lib/systemd/systemd", "systemd"))
	assert.Equal(t, -1, indexOf("/sbin/openrc-init", "systemd"))
	assert.Equal(t, -1, indexOf("short", "longer-needle"))
}

func TestDetectSystemdInitViaSymlink(t *testing.T) {
	dir := t.TempDir()
	sbin := filepath.Join(dir, "sbin")
	require.NoError(t, os.MkdirAll(sbin, 0755))
	target := filepath.Join(dir, "lib", "systemd", "systemd")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte{}, 0755))
	require.NoError(t, os.Symlink(target, filepath.Join(sbin, "init")))

	assert.True(t, detectSystemdInit(dir))
}

func TestDetectSystemdInitViaContent(t *testing.T) {
	dir := t.TempDir()
	sbin := filepath.Join(dir, "sbin")
	require.NoError(t, os.MkdirAll(sbin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sbin, "init"),
		[]byte("\x7fELF...systemd...binary"), 0755))

	assert.True(t, detectSystemdInit(dir))
}

func TestDetectSystemdInitFalseForOther(t *testing.T) {
	dir := t.TempDir()
	sbin := filepath.Join(dir, "sbin")
	require.NoError(t, os.MkdirAll(sbin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sbin, "init"),
		[]byte("\x7fELF...openrc..."), 0755))

	assert.False(t, detectSystemdInit(dir))
}

func TestDetectSystemdInitMissing(t *testing.T) {
	assert.False(t, detectSystemdInit(t.TempDir()))
}

func TestSpecFilePathStable(t *testing.T) {
	a := specFilePath("alpine-3.19")
	b := specFilePath("alpine-3.19")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "alpine-3.19")
}
