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
// Package mount implements the generic mount wrappers, /dev population,
// devpts, volatile OverlayFS and loopback image handling the boot
// sequencer relies on.
package mount

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// ErrAlreadyMounted is not returned by Mount: EBUSY is treated as
// success, matching domount's semantics.
var ErrAlreadyMounted = errors.New("mount: already mounted")

// Mount wraps unix.Mount, translating EBUSY into success.
func Mount(source, target, fstype string, flags uintptr, data string) error {
	if err := unix.Mount(source, target, fstype, flags, data); err != nil {
		if err == unix.EBUSY {
			return nil
		}
		return fmt.Errorf("mount %s on %s (%s): %w", orNone(source), target, orNone(fstype), err)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// BindMount bind-mounts src onto tgt, creating tgt (directory or empty
// file, matching src's type) if it doesn't exist.
func BindMount(src, tgt string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if _, err := os.Stat(tgt); err != nil {
		if srcInfo.IsDir() {
			if err := os.MkdirAll(tgt, 0755); err != nil {
				return err
			}
		} else {
			if err := os.MkdirAll(filepath.Dir(tgt), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(tgt, os.O_CREATE, 0644)
			if err != nil {
				return err
			}
			f.Close()
		}
	}
	return Mount(src, tgt, "", unix.MS_BIND|unix.MS_REC, "")
}

// IsMountpoint reports whether path is a mount boundary, by comparing
// the device id of path against its parent.
func IsMountpoint(path string) bool {
	mounted, err := mountinfo.Mounted(path)
	if err != nil {
		return false
	}
	return mounted
}

// RemountReadOnly remounts an existing bind mount read-only in place.
func RemountReadOnly(target string) error {
	return Mount("", target, "", unix.MS_REMOUNT|unix.MS_BIND|unix.MS_RDONLY, "")
}

// MakePrivateRecursive marks path (and everything under it) MS_PRIVATE,
// preventing propagation leaks back to the host — step 2 of the boot
// sequence, applied to "/" right after the mount namespace unshare.
func MakePrivateRecursive(path string) error {
	return unix.Mount("", path, "", unix.MS_REC|unix.MS_PRIVATE, "")
}

// PivotRoot performs pivot_root(newRoot, putOld) then chdir("/").
func PivotRoot(newRoot, putOld string) error {
	if err := unix.PivotRoot(newRoot, putOld); err != nil {
		return fmt.Errorf("pivot_root: %w", err)
	}
	return unix.Chdir("/")
}

// LazyUnmount detaches target without waiting for references to drop.
func LazyUnmount(target string) error {
	if err := unix.Unmount(target, unix.MNT_DETACH); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}

// BindDestInRootfs resolves a bind-mount destination against rootfs,
// confining any path that would escape it (P9) to rootfs, and refusing a
// destination that is itself a pre-existing symlink.
func BindDestInRootfs(rootfs, dest string) (string, error) {
	if fi, err := os.Lstat(filepath.Join(rootfs, filepath.Clean("/"+dest))); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("mount: bind dest %q is a symlink, refusing", dest)
	}
	full, err := securejoin.SecureJoin(rootfs, dest)
	if err != nil {
		return "", fmt.Errorf("mount: resolve bind dest %q: %w", dest, err)
	}
	return full, nil
}

// FstypeOf returns the filesystem type of path according to pid's mount
// namespace view (or the caller's own, if pid <= 0), by finding the
// longest mountpoint prefix covering path.
func FstypeOf(pid int, path string) (string, error) {
	all, err := mountinfoForPid(pid)
	if err != nil {
		return "", err
	}
	best := ""
	bestLen := -1
	for _, m := range all {
		if len(m.Mountpoint) > bestLen && isUnderOrEqual(path, m.Mountpoint) {
			best = m.FSType
			bestLen = len(m.Mountpoint)
		}
	}
	if bestLen < 0 {
		return "", fmt.Errorf("mount: no mountinfo entry covers %q", path)
	}
	return best, nil
}

func isUnderOrEqual(path, mp string) bool {
	if path == mp {
		return true
	}
	if mp == "/" {
		return len(path) > 0 && path[0] == '/'
	}
	return len(path) > len(mp) && path[:len(mp)] == mp && path[len(mp)] == '/'
}

func mountinfoForPid(pid int) ([]*mountinfo.Info, error) {
	if pid > 0 {
		return mountinfo.PIDMountInfo(pid)
	}
	return mountinfo.GetMounts(nil)
}
