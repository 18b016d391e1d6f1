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
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// VolatileLayout is the scratch OverlayFS directory set for one
// container, rooted at Volatile/<name>/ in the workspace.
type VolatileLayout struct {
	Base   string
	Upper  string
	Work   string
	Merged string
}

// NewVolatileLayout derives the {upper,work,merged} paths for name under
// workspaceVolatileDir.
func NewVolatileLayout(workspaceVolatileDir, name string) VolatileLayout {
	base := filepath.Join(workspaceVolatileDir, name)
	return VolatileLayout{
		Base:   base,
		Upper:  filepath.Join(base, "upper"),
		Work:   filepath.Join(base, "work"),
		Merged: filepath.Join(base, "merged"),
	}
}

// CheckVolatileEligible rejects f2fs lower layers, a known Android
// kernel OverlayFS limitation.
func CheckVolatileEligible(rootfs string) error {
	fstype, err := FstypeOf(0, rootfs)
	if err != nil {
		// Fstype introspection failing is not itself disqualifying;
		// the overlay mount attempt will surface real incompatibility.
		return nil
	}
	if fstype == "f2fs" {
		return fmt.Errorf("mount: rootfs %q is on f2fs, incompatible with --volatile overlay lower layer", rootfs)
	}
	return nil
}

// SetupVolatile builds a tmpfs-backed {upper,work} pair and mounts an
// overlay of rootfs as lower onto layout.Merged, returning the merged
// path to use as the effective rootfs. On failure it rolls back any
// partial state it created.
func SetupVolatile(layout VolatileLayout, rootfs string, android bool) (effectiveRootfs string, err error) {
	if err := CheckVolatileEligible(rootfs); err != nil {
		return "", err
	}
	for _, d := range []string{layout.Upper, layout.Work, layout.Merged} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return "", err
		}
	}
	data := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", rootfs, layout.Upper, layout.Work)
	if android {
		data += `,context="u:object_r:tmpfs:s0"`
	}
	if err := Mount("overlay", layout.Merged, "overlay", 0, data); err != nil {
		RemoveVolatile(layout)
		return "", fmt.Errorf("mount: volatile overlay setup: %w", err)
	}
	return layout.Merged, nil
}

// RemoveVolatile lazily unmounts and removes a volatile layout's tree,
// best-effort, used both on setup failure and on container teardown.
func RemoveVolatile(layout VolatileLayout) {
	_ = LazyUnmount(layout.Merged)
	_ = os.RemoveAll(layout.Base)
}

// EnsureVolatileBaseTmpfs ensures the parent Volatile/ directory is
// backed by tmpfs so upper/work never touch persistent storage even if
// the workspace root itself lives on disk.
func EnsureVolatileBaseTmpfs(workspaceVolatileDir string) error {
	if err := os.MkdirAll(workspaceVolatileDir, 0755); err != nil {
		return err
	}
	if IsMountpoint(workspaceVolatileDir) {
		return nil
	}
	return Mount("none", workspaceVolatileDir, "tmpfs", unix.MS_NOSUID|unix.MS_NODEV, "mode=755")
}
