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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dspacesrt/droidspaces/fsutil"
	"github.com/dspacesrt/droidspaces/mount"
)

// Scan adopts untracked-but-valid container PIDs into the registry and
// sweeps /mnt/Droidspaces/* for mount points with no sidecar, lazily
// unmounting them.
func Scan() (adopted []string, swept []string, err error) {
	if err := EnsureWorkspace(); err != nil {
		return nil, nil, err
	}

	existing, err := List()
	if err != nil {
		return nil, nil, err
	}
	trackedPIDs := map[int]bool{}
	trackedMounts := map[string]bool{}
	for _, e := range existing {
		trackedPIDs[e.PID] = true
		if e.MountPath != "" {
			trackedMounts[e.MountPath] = true
		}
	}

	pids, err := fsutil.ScanPIDs()
	if err != nil {
		return nil, nil, err
	}
	idx, err := BuildIndex()
	if err != nil {
		return nil, nil, err
	}

	for _, pid := range pids {
		if trackedPIDs[pid] {
			continue
		}
		if !IsValidContainerPID(pid) {
			continue
		}
		rootfs, err := os.Readlink(fmt.Sprintf("/proc/%d/root", pid))
		if err != nil {
			rootfs = ""
		}
		rootfs = stripQuotes(rootfs)
		base := GenerateContainerName(rootfs)
		name := base
		if idx.Has(name) {
			name, err = FindAvailableName(base)
			if err != nil {
				continue
			}
		}
		if err := SyncPidfile(name, pid); err != nil {
			continue
		}
		adopted = append(adopted, name)
	}

	entries, err := os.ReadDir(mount.ImgMountRoot)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(mount.ImgMountRoot, e.Name())
			if trackedMounts[path] {
				continue
			}
			if !mount.IsMountpoint(path) {
				continue
			}
			_ = mount.LazyUnmount(path)
			swept = append(swept, path)
		}
	}

	return adopted, swept, nil
}

// stripQuotes is used by scan's rootfs-derived naming path if the
// readlink result carries a trailing " (deleted)" suffix from a removed
// rootfs directory.
func stripQuotes(s string) string {
	return strings.TrimSuffix(s, " (deleted)")
}
