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
package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBindMount(t *testing.T) {
	bm, err := ParseBindMount("/host/data:/mnt/data")
	require.NoError(t, err)
	assert.Equal(t, BindMount{Src: "/host/data", Dest: "/mnt/data"}, bm)

	_, err = ParseBindMount("/host/data")
	assert.Error(t, err)

	_, err = ParseBindMount("/host/data:relative")
	assert.Error(t, err)

	_, err = ParseBindMount("/host/data:/mnt/../etc")
	assert.Error(t, err)
}

func TestParseBindMountsTooMany(t *testing.T) {
	spec := ""
	for i := 0; i < maxBinds+1; i++ {
		if i > 0 {
			spec += ","
		}
		spec += "/a:/b"
	}
	_, err := ParseBindMounts(spec)
	assert.Error(t, err)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "name=alpine\nforeground=true\n# a comment\ncustom_future_key=42\nbind_mounts=/a:/b,/c:/d\n"
	require.NoError(t, afero.WriteFile(fs, "/container.config", []byte(content), 0644))

	cfg, extra, err := LoadFile(fs, "/container.config")
	require.NoError(t, err)
	assert.Equal(t, "alpine", cfg.Name)
	assert.True(t, cfg.Foreground)
	require.Len(t, cfg.Binds, 2)
	assert.Equal(t, "42", extra["custom_future_key"])

	require.NoError(t, SaveFile(fs, "/container.config", cfg, extra))
	out, err := afero.ReadFile(fs, "/container.config")
	require.NoError(t, err)
	assert.Contains(t, string(out), "custom_future_key=42")
	assert.Contains(t, string(out), "name=alpine")
}

func TestAutoConfigPath(t *testing.T) {
	assert.Equal(t, "/srv/container.config", AutoConfigPath("/srv/rootfs"))
	assert.Equal(t, "", AutoConfigPath(""))
}
