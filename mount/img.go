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
	"time"

	"github.com/dspacesrt/droidspaces/fsutil"
	"golang.org/x/sys/unix"
)

// ImgMountRoot is the universal loopback mount point root (§3).
const ImgMountRoot = "/mnt/Droidspaces"

// MaxMountTries bounds the numbered-subdirectory probing in
// FindAvailableMountpoint.
const MaxMountTries = 1024

// FindAvailableMountpoint returns an unused /mnt/Droidspaces/<n> path,
// creating the directory.
func FindAvailableMountpoint() (string, error) {
	if err := os.MkdirAll(ImgMountRoot, 0755); err != nil {
		return "", err
	}
	for i := 0; i < MaxMountTries; i++ {
		path := filepath.Join(ImgMountRoot, fmt.Sprintf("%d", i))
		info, err := os.Stat(path)
		if err != nil {
			if err := os.Mkdir(path, 0755); err == nil {
				return path, nil
			}
			continue
		}
		if info.IsDir() && !IsMountpoint(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("mount: no available mount point under %s", ImgMountRoot)
}

// MountRootfsImg fscks (best-effort) and loop-mounts imgPath, returning
// the chosen mount point.
func MountRootfsImg(imgPath string) (string, error) {
	mountPoint, err := FindAvailableMountpoint()
	if err != nil {
		return "", err
	}

	fsutil.RunCommandQuiet("e2fsck", "-f", "-y", imgPath)

	if code := fsutil.RunCommandQuiet("mount", "-o", "loop", imgPath, mountPoint); code != 0 {
		_ = os.Remove(mountPoint)
		return "", fmt.Errorf("mount: failed to loop-mount image %q on %q", imgPath, mountPoint)
	}
	return mountPoint, nil
}

// UnmountRootfsImg detaches the loop mount at mountPoint and removes the
// directory, best-effort in both the syscall and shell-fallback paths.
func UnmountRootfsImg(mountPoint string) error {
	if mountPoint == "" {
		return nil
	}
	if err := unix.Unmount(mountPoint, unix.MNT_DETACH); err != nil {
		fsutil.RunCommandQuiet("umount", "-d", "-l", mountPoint)
	}
	time.Sleep(100 * time.Millisecond)
	_ = os.Remove(mountPoint)
	return nil
}
