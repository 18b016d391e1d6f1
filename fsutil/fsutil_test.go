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
package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker")
	require.NoError(t, WriteFileAtomic(path, []byte("droidspaces"), 0644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "droidspaces", string(data))
}

func TestReadFileTrim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("init\r\n"), 0644))
	s, err := ReadFileTrim(path)
	require.NoError(t, err)
	assert.Equal(t, "init", s)
}

func TestParseKernelVersion(t *testing.T) {
	v, err := ParseKernelVersion("5.15.0-91-generic")
	require.NoError(t, err)
	assert.Equal(t, KernelVersion{Major: 5, Minor: 15}, v)

	v2, err := ParseKernelVersion("4.14.180+")
	require.NoError(t, err)
	assert.Equal(t, KernelVersion{Major: 4, Minor: 14}, v2)

	assert.True(t, v2.Less(v))
	assert.False(t, v.Less(v2))

	_, err = ParseKernelVersion("garbage")
	assert.Error(t, err)
}

func TestNewUUIDShape(t *testing.T) {
	id := NewUUID()
	assert.Len(t, id, 32)
	for _, r := range id {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'))
	}
}

func TestGrepFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mounts")
	require.NoError(t, os.WriteFile(path, []byte("none /sys/fs/cgroup cgroup2 rw 0 0\n"), 0644))
	assert.True(t, GrepFile(path, "cgroup2"))
	assert.False(t, GrepFile(path, "nonexistent-token"))
}

func TestJoinNoEscape(t *testing.T) {
	p, err := JoinNoEscape("/rootfs", "etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, "/rootfs/etc/hosts", p)

	_, err = JoinNoEscape("/rootfs", "../etc/passwd")
	assert.Error(t, err)
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	assert.True(t, IsExecutable(path))

	nonExec := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(nonExec, []byte("x"), 0644))
	assert.False(t, IsExecutable(nonExec))
}
