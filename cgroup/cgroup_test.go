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
package cgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseV1Controllers(t *testing.T) {
	assert.Equal(t, []string{"cpu", "cpuacct"}, parseV1Controllers("rw,cpu,cpuacct"))
	assert.Equal(t, []string{"memory"}, parseV1Controllers("ro,memory"))
	assert.Empty(t, parseV1Controllers("rw"))
}

func TestSubdirName(t *testing.T) {
	assert.Equal(t, "unified", subdirName(Hierarchy{Version: V2}))
	assert.Equal(t, "cpu,cpuacct", subdirName(Hierarchy{Version: V1, Controllers: []string{"cpu", "cpuacct"}}))
}

func TestMountArgsAndroidAlias(t *testing.T) {
	fstype, data := mountArgs(Hierarchy{Version: V1, Controllers: []string{"memcg"}})
	assert.Equal(t, "cgroup", fstype)
	assert.Equal(t, "memory", data)

	fstype2, data2 := mountArgs(Hierarchy{Version: V2})
	assert.Equal(t, "cgroup2", fstype2)
	assert.Equal(t, "", data2)
}

func TestControllerListMatches(t *testing.T) {
	assert.True(t, controllerListMatches([]string{"cpu", "cpuacct"}, "cpu,cpuacct"))
	assert.True(t, controllerListMatches([]string{"memory"}, "memory"))
	assert.False(t, controllerListMatches([]string{"cpu"}, "memory"))
}
