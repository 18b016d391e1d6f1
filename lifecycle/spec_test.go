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
	"path/filepath"
	"testing"

	"github.com/dspacesrt/droidspaces/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadSpecRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	want := &BootSpec{
		Cfg:            &config.Config{Name: "alpine-3.19", RootfsPath: "/var/lib/droidspaces/alpine"},
		ConsoleSlave:   "/dev/pts/4",
		AuxSlaves:      []string{"/dev/pts/5", "/dev/pts/6"},
		CgroupNSActive: true,
		IsSystemdInit:  false,
	}

	require.NoError(t, WriteSpec(path, want))

	got, err := ReadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, want.Cfg.Name, got.Cfg.Name)
	assert.Equal(t, want.Cfg.RootfsPath, got.Cfg.RootfsPath)
	assert.Equal(t, want.ConsoleSlave, got.ConsoleSlave)
	assert.Equal(t, want.AuxSlaves, got.AuxSlaves)
	assert.Equal(t, want.CgroupNSActive, got.CgroupNSActive)
	assert.Equal(t, want.IsSystemdInit, got.IsSystemdInit)
}

func TestReadSpecMissingFile(t *testing.T) {
	_, err := ReadSpec(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
