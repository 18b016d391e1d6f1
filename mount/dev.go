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

	"github.com/dspacesrt/droidspaces/term"
	"golang.org/x/sys/unix"
)

type deviceSpec struct {
	name  string
	mode  uint32
	major uint32
	minor uint32
}

// standardDevices is the minimal character device set created in
// isolated (non-hw-access) /dev, with the major/minor pairs from the
// GLOSSARY.
var standardDevices = []deviceSpec{
	{"null", unix.S_IFCHR | 0666, 1, 3},
	{"zero", unix.S_IFCHR | 0666, 1, 5},
	{"full", unix.S_IFCHR | 0666, 1, 7},
	{"random", unix.S_IFCHR | 0666, 1, 8},
	{"urandom", unix.S_IFCHR | 0666, 1, 9},
	{"tty", unix.S_IFCHR | 0666, 5, 0},
	{"console", unix.S_IFCHR | 0600, 5, 1},
	{"ptmx", unix.S_IFCHR | 0666, 5, 2},
}

// SetupDev populates rootfs/dev either by exposing the host's devtmpfs
// (hwAccess) or by building a small private tmpfs device set.
func SetupDev(rootfs string, hwAccess bool) error {
	devPath := filepath.Join(rootfs, "dev")
	if hwAccess {
		// WARNING: insecure but provides full hardware access.
		if err := Mount("devtmpfs", devPath, "devtmpfs", unix.MS_NOSUID|unix.MS_NOEXEC, ""); err != nil {
			return err
		}
		return recreateDangerousDevices(devPath)
	}
	if err := Mount("none", devPath, "tmpfs", unix.MS_NOSUID|unix.MS_NOEXEC, "size=4M,mode=755"); err != nil {
		return err
	}
	return CreateDevices(rootfs, term.MaxAuxTTYs)
}

// recreateDangerousDevices unlinks and mknods a private copy of each
// entry in standardDevices under devPath, so hw-access mode's devtmpfs
// doesn't hand the container the host's own console/tty/random nodes.
func recreateDangerousDevices(devPath string) error {
	for _, d := range standardDevices {
		path := filepath.Join(devPath, d.name)
		_ = os.Remove(path)
		devNum := unix.Mkdev(d.major, d.minor)
		if err := unix.Mknod(path, d.mode, int(devNum)); err != nil {
			return fmt.Errorf("mount: recreate device %s: %w", d.name, err)
		}
	}
	return nil
}

// CreateDevices mknods the standard device table, symlinks /dev/fd and
// friends, and creates numAuxTTYs empty tty<N> bind targets.
func CreateDevices(rootfs string, numAuxTTYs int) error {
	for _, d := range standardDevices {
		path := filepath.Join(rootfs, "dev", d.name)
		devNum := unix.Mkdev(d.major, d.minor)
		if err := unix.Mknod(path, d.mode, int(devNum)); err != nil {
			if err == unix.EEXIST {
				continue
			}
			// mknod needs CAP_MKNOD; fall back to bind-mounting the
			// host's node so unprivileged test environments still work.
			hostPath := filepath.Join("/dev", d.name)
			if bmErr := BindMount(hostPath, path); bmErr != nil {
				return fmt.Errorf("mount: create device %s: mknod failed (%v), bind fallback failed (%w)", d.name, err, bmErr)
			}
		}
	}

	for _, extra := range []string{"net/tun", "fuse"} {
		hostPath := filepath.Join("/dev", extra)
		if _, err := os.Stat(hostPath); err != nil {
			// not available on this host, skip
			continue
		}
		if err := BindMount(hostPath, filepath.Join(rootfs, "dev", extra)); err != nil {
			return fmt.Errorf("mount: bind /dev/%s: %w", extra, err)
		}
	}

	for i := 1; i <= numAuxTTYs; i++ {
		path := filepath.Join(rootfs, "dev", fmt.Sprintf("tty%d", i))
		if _, err := os.Stat(path); err != nil {
			f, err := os.OpenFile(path, os.O_CREATE, 0644)
			if err != nil {
				return err
			}
			f.Close()
		}
	}

	links := map[string]string{
		"fd":     "/proc/self/fd",
		"stdin":  "/proc/self/fd/0",
		"stdout": "/proc/self/fd/1",
		"stderr": "/proc/self/fd/2",
	}
	for name, target := range links {
		path := filepath.Join(rootfs, "dev", name)
		_ = os.Remove(path)
		if err := os.Symlink(target, path); err != nil {
			return err
		}
	}
	return nil
}

// SetupDevpts mounts a private devpts instance. Must run after
// pivot_root for "newinstance" to take effect.
func SetupDevpts() error {
	if err := os.MkdirAll("/dev/pts", 0755); err != nil {
		return err
	}
	opts := []string{
		"newinstance,ptmxmode=0666,mode=0620,gid=5",
		"newinstance,ptmxmode=0666,mode=0620",
		"",
	}
	var lastErr error
	for _, o := range opts {
		if err := Mount("devpts", "/dev/pts", "devpts", unix.MS_NOSUID|unix.MS_NOEXEC, o); err == nil {
			return finalizePtmx()
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// finalizePtmx materializes /dev/ptmx as a bind mount of the private
// instance's pts/ptmx, falling back to a symlink.
func finalizePtmx() error {
	ptmx := "/dev/ptmx"
	_ = os.Remove(ptmx)
	if err := BindMount("/dev/pts/ptmx", ptmx); err == nil {
		return nil
	}
	return os.Symlink("pts/ptmx", ptmx)
}

// MaskPath bind-mounts /dev/null over path, used to hide
// sys/class/tty/console/active from a systemd that would otherwise try
// to resolve the host's real console.
func MaskPath(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return BindMount("/dev/null", path)
}
