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
// Package lifecycle implements the monitor/init re-exec process
// topology (SPEC_FULL.md §A.3) and the start/stop/restart/enter/run/
// scan command implementations.
package lifecycle

import (
	"encoding/json"
	"os"

	"github.com/dspacesrt/droidspaces/cgroup"
	"github.com/dspacesrt/droidspaces/config"
)

// BootSpec is the serialized handoff between the parent, monitor and
// init tiers: everything boot.Run needs that isn't reachable by reading
// /proc once inside the new namespaces.
type BootSpec struct {
	Cfg            *config.Config
	ConsoleSlave   string
	AuxSlaves      []string
	Hierarchies    []cgroup.Hierarchy
	CgroupNSActive bool
	IsSystemdInit  bool
}

// WriteSpec serializes spec to path as JSON.
func WriteSpec(path string, spec *BootSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ReadSpec deserializes a BootSpec previously written by WriteSpec.
func ReadSpec(path string) (*BootSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec BootSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}
