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
)

func TestEffectiveRootfsNonVolatile(t *testing.T) {
	cfg := &config.Config{Name: "alpine", RootfsPath: "/var/lib/droidspaces/alpine"}
	assert.Equal(t, "/var/lib/droidspaces/alpine", effectiveRootfs(cfg))
}

func TestEffectiveRootfsVolatile(t *testing.T) {
	cfg := &config.Config{
		Name:         "alpine",
		RootfsPath:   "/var/lib/droidspaces/alpine",
		VolatileMode: true,
		VolatileDir:  "/var/lib/droidspaces/Volatile",
	}
	want := filepath.Join("/var/lib/droidspaces/Volatile", "alpine", "merged")
	assert.Equal(t, want, effectiveRootfs(cfg))
}

func TestEffectiveRootfsVolatileButNoDirFallsBack(t *testing.T) {
	cfg := &config.Config{
		Name:         "alpine",
		RootfsPath:   "/var/lib/droidspaces/alpine",
		VolatileMode: true,
	}
	assert.Equal(t, "/var/lib/droidspaces/alpine", effectiveRootfs(cfg))
}

func TestResolveTargetEmptyUsesAutoResolve(t *testing.T) {
	_, err := resolveTarget("")
	assert.Error(t, err)
}

func TestResolveTargetByNameMissing(t *testing.T) {
	_, err := resolveTarget("definitely-not-a-real-container")
	assert.Error(t, err)
}
