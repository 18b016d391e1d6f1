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
package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrNone(t *testing.T) {
	assert.Equal(t, "none", orNone(""))
	assert.Equal(t, "overlay", orNone("overlay"))
}

func TestIsUnderOrEqual(t *testing.T) {
	assert.True(t, isUnderOrEqual("/a/b", "/a/b"))
	assert.True(t, isUnderOrEqual("/a/b/c", "/a/b"))
	assert.False(t, isUnderOrEqual("/a/bc", "/a/b"))
	assert.False(t, isUnderOrEqual("/a", "/a/b"))
}

func TestBindDestInRootfsRejectsSymlink(t *testing.T) {
	rootfs := t.TempDir()
	target := filepath.Join(rootfs, "real")
	require.NoError(t, os.MkdirAll(target, 0755))
	link := filepath.Join(rootfs, "mnt")
	require.NoError(t, os.Symlink(target, link))

	_, err := BindDestInRootfs(rootfs, "mnt")
	assert.Error(t, err)
}

func TestBindDestInRootfsResolvesPlainPath(t *testing.T) {
	rootfs := t.TempDir()
	full, err := BindDestInRootfs(rootfs, "data/app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootfs, "data", "app"), full)
}

func TestBindDestInRootfsRefusesEscape(t *testing.T) {
	rootfs := t.TempDir()
	full, err := BindDestInRootfs(rootfs, "../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, len(full) >= len(rootfs))
	assert.Equal(t, rootfs, full[:len(rootfs)])
}
