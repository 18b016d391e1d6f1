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
// Package cgroup discovers the host's cgroup hierarchies and replicates
// them inside the container, following LXC's "data-driven" approach:
// read /proc/self/mountinfo instead of hardcoding controller names.
package cgroup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// Version distinguishes the two cgroup hierarchy kinds, carrying only
// the fields each uses (the "tagged variant" design note in spec §9).
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

// Hierarchy is one discovered host cgroup mount.
type Hierarchy struct {
	Version     Version
	Mountpoint  string
	Controllers []string // v1 only; empty for v2 (unified)
}

// androidAlias maps container-side subdirectory names to their kernel
// controller names, for Android's renamed cgroup hierarchies.
var androidAlias = map[string]string{
	"memcg": "memory",
	"acct":  "cpuacct",
}

// DiscoverHost enumerates every cgroup/cgroup2 mount visible to the
// calling process.
func DiscoverHost() ([]Hierarchy, error) {
	mounts, err := mountinfo.GetMounts(func(m *mountinfo.Info) (skip, stop bool) {
		if m.FSType != "cgroup" && m.FSType != "cgroup2" {
			return true, false
		}
		if strings.Contains(m.Mountpoint, "/Droidspaces/") {
			return true, false
		}
		return false, false
	})
	if err != nil {
		return nil, err
	}
	var out []Hierarchy
	for _, m := range mounts {
		if m.FSType == "cgroup2" {
			out = append(out, Hierarchy{Version: V2, Mountpoint: m.Mountpoint})
			continue
		}
		out = append(out, Hierarchy{
			Version:     V1,
			Mountpoint:  m.Mountpoint,
			Controllers: parseV1Controllers(m.VFSOptions),
		})
	}
	return out, nil
}

// parseV1Controllers strips the leading "rw,"/"ro," propagation flag
// from the superblock options, leaving the comma-joined controller
// list (e.g. "cpu,cpuacct").
func parseV1Controllers(vfsOptions string) []string {
	opts := strings.Split(vfsOptions, ",")
	var controllers []string
	for _, o := range opts {
		switch o {
		case "rw", "ro", "":
			continue
		}
		controllers = append(controllers, o)
	}
	return controllers
}

// SelfCgroupPath returns the calling process's path within the named
// controller's hierarchy, from /proc/self/cgroup.
func SelfCgroupPath(controller string) (string, error) {
	return cgroupPathForPID("self", controller)
}

func cgroupPathForPID(pid, controller string) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%s/cgroup", pid))
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		fields := strings.SplitN(line, ":", 3)
		if len(fields) != 3 {
			continue
		}
		subsys := fields[1]
		path := fields[2]
		if subsys == "" {
			// cgroup v2 unified entry.
			if controller == "" {
				return path, nil
			}
			continue
		}
		for _, c := range strings.Split(subsys, ",") {
			if c == controller {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("cgroup: controller %q not found in /proc/%s/cgroup", controller, pid)
}

// IsNamespaceActive reports whether the calling process is already
// inside a non-root cgroup namespace (every /proc/self/cgroup path is
// "/").
func IsNamespaceActive() bool {
	data, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		fields := strings.SplitN(line, ":", 3)
		if len(fields) != 3 {
			continue
		}
		if fields[2] != "/" {
			return false
		}
	}
	return true
}

// subdirName derives the container-side directory name for a
// hierarchy: always "unified" for v2, the controller list for v1
// ("cpu,cpuacct"), or the mountpoint's basename for a v1 hierarchy with
// no controllers.
func subdirName(h Hierarchy) string {
	if h.Version == V2 {
		return "unified"
	}
	if len(h.Controllers) == 0 {
		return filepath.Base(h.Mountpoint)
	}
	return strings.Join(h.Controllers, ",")
}

// mountArgs returns the fstype string and, for v1, the comma-joined
// controller data argument to pass to mount(2), applying the Android
// alias mapping.
func mountArgs(h Hierarchy) (fstype, data string) {
	if h.Version == V2 {
		return "cgroup2", ""
	}
	mapped := make([]string, len(h.Controllers))
	for i, c := range h.Controllers {
		if alias, ok := androidAlias[c]; ok {
			mapped[i] = alias
		} else {
			mapped[i] = c
		}
	}
	return "cgroup", strings.Join(mapped, ",")
}

// Setup builds /sys/fs/cgroup inside the container (sysfsRoot/fs/cgroup
// must already exist: boot creates it before the read-only /sys remount
// and calls Setup after that remount), given
// the host hierarchies discovered from the parent mount namespace
// (cgroup.DiscoverHost must be called BEFORE the mount-namespace
// unshare; the result is passed in here since after unshare the
// process may no longer see the host's mountinfo the same way).
func Setup(sysfsRoot string, hierarchies []Hierarchy, nsActive, hwAccess bool) error {
	cgroupRoot := filepath.Join(sysfsRoot, "fs", "cgroup")
	if err := os.MkdirAll(cgroupRoot, 0755); err != nil {
		return err
	}
	if err := mountWrap("none", cgroupRoot, "tmpfs", unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, "mode=755"); err != nil {
		return err
	}

	isPureV2 := len(hierarchies) == 1 && hierarchies[0].Version == V2

	secondaryLinks := map[string]string{} // link name -> target dir name

	for _, h := range hierarchies {
		name := subdirName(h)
		dir := filepath.Join(cgroupRoot, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		mounted := false
		if nsActive {
			fstype, data := mountArgs(h)
			if err := mountWrap(fstype, dir, fstype, 0, data); err == nil {
				mounted = true
			}
		}
		if !mounted {
			selfController := ""
			if h.Version == V1 && len(h.Controllers) > 0 {
				selfController = h.Controllers[0]
			}
			selfPath, err := SelfCgroupPath(selfController)
			if err != nil {
				selfPath = "/"
			}
			if err := BindFromHost(h.Mountpoint, selfPath, dir); err != nil {
				return fmt.Errorf("cgroup: legacy bind-mount strategy failed for %q: %w", name, err)
			}
		}

		if h.Version == V1 && len(h.Controllers) > 1 {
			for _, c := range h.Controllers[1:] {
				secondaryLinks[c] = name
			}
		}
	}

	for link, target := range secondaryLinks {
		linkPath := filepath.Join(cgroupRoot, link)
		if _, err := os.Lstat(linkPath); err == nil {
			continue
		}
		_ = os.Symlink(target, linkPath)
	}

	if !isPureV2 {
		return mountRemountRO(cgroupRoot)
	}
	return nil
}

// BindFromHost bind-mounts hostMount+selfPath onto dir — the legacy
// (non-cgroup-namespace) isolation strategy.
func BindFromHost(hostMount, selfPath, dir string) error {
	return mountWrap(filepath.Join(hostMount, strings.TrimPrefix(selfPath, "/")), dir, "", unix.MS_BIND|unix.MS_REC, "")
}

// Attach writes the caller's own PID into targetPID's cgroup (every
// hierarchy it belongs to), used by enter so the new session reparents
// correctly. EPERM is ignored (best-effort, matches the original).
func Attach(targetPID int) error {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cgroup", targetPID))
	if err != nil {
		return err
	}
	hierarchies, err := DiscoverHost()
	if err != nil {
		return err
	}
	selfPID := os.Getpid()
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		fields := strings.SplitN(line, ":", 3)
		if len(fields) != 3 {
			continue
		}
		subsys, path := fields[1], fields[2]
		for _, h := range hierarchies {
			if h.Version == V2 && subsys != "" {
				continue
			}
			if h.Version == V1 && !controllerListMatches(h.Controllers, subsys) {
				continue
			}
			procsFile := filepath.Join(h.Mountpoint, strings.TrimPrefix(path, "/"), "cgroup.procs")
			if h.Version == V1 {
				if _, err := os.Stat(procsFile); err != nil {
					procsFile = filepath.Join(h.Mountpoint, strings.TrimPrefix(path, "/"), "tasks")
				}
			}
			if werr := os.WriteFile(procsFile, []byte(strconv.Itoa(selfPID)), 0644); werr != nil {
				if os.IsPermission(werr) {
					continue
				}
			}
		}
	}
	return nil
}

func controllerListMatches(controllers []string, subsys string) bool {
	for _, c := range controllers {
		if c == subsys {
			return true
		}
	}
	return strings.Join(controllers, ",") == subsys
}

func mountWrap(source, target, fstype string, flags uintptr, data string) error {
	if err := unix.Mount(source, target, fstype, flags, data); err != nil {
		if err == unix.EBUSY {
			return nil
		}
		return err
	}
	return nil
}

func mountRemountRO(target string) error {
	return unix.Mount("", target, "", unix.MS_REMOUNT|unix.MS_BIND|unix.MS_RDONLY, "")
}

// PreStepMkdirAndJoin is the monitor's cgroup-namespace pre-step: create
// /sys/fs/cgroup/droidspaces/<name> on the host and write the caller's
// own PID into it, so the subsequent CLONE_NEWCGROUP unshare produces a
// non-root namespace view.
func PreStepMkdirAndJoin(name string) error {
	hierarchies, err := DiscoverHost()
	if err != nil {
		return err
	}
	for _, h := range hierarchies {
		if h.Version != V2 {
			continue
		}
		dir := filepath.Join(h.Mountpoint, "droidspaces", name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			continue
		}
		_ = os.WriteFile(filepath.Join(dir, "cgroup.procs"), []byte(strconv.Itoa(os.Getpid())), 0644)
	}
	return nil
}

// CgroupNamespaceSupported reports whether /proc/self/ns/cgroup exists.
func CgroupNamespaceSupported() bool {
	_, err := os.Stat("/proc/self/ns/cgroup")
	return err == nil
}
