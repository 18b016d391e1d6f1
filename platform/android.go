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
// Package platform implements Android host detection and its associated
// optimizations, SELinux toggling, the legacy-kernel seccomp shield, and
// the preflight `check` diagnostics.
package platform

import (
	"os"
	"sync"

	"github.com/dspacesrt/droidspaces/fsutil"
)

var (
	androidOnce   sync.Once
	androidResult bool
)

// IsAndroid reports whether the host is an Android device, cached after
// the first call.
func IsAndroid() bool {
	androidOnce.Do(func() {
		if os.Getenv("ANDROID_ROOT") != "" {
			androidResult = true
			return
		}
		for _, p := range []string{"/system/bin/app_process", "/dev/binder", "/dev/ashmem"} {
			if _, err := os.Stat(p); err == nil {
				androidResult = true
				return
			}
		}
	})
	return androidResult
}

// AndroidOptimizations toggles a handful of Android system properties
// that otherwise throttle or freeze long-running container processes.
// Applied on start (enable=true), best-effort reverted on stop when no
// other containers remain running (enable=false) — see DESIGN.md OQ1
// for the accepted race.
func AndroidOptimizations(enable bool) {
	if enable {
		fsutil.RunCommandQuiet("cmd", "device_config", "put", "activity_manager", "max_phantom_processes", "2147483647")
		fsutil.RunCommandQuiet("cmd", "sync", "set-disable-sync-for-tests", "persistent")
		fsutil.RunCommandQuiet("dumpsys", "deviceidle", "disable")
	} else {
		fsutil.RunCommandQuiet("cmd", "device_config", "put", "activity_manager", "max_phantom_processes", "32")
		fsutil.RunCommandQuiet("cmd", "sync", "set-disable-sync-for-tests", "none")
		fsutil.RunCommandQuiet("dumpsys", "deviceidle", "enable")
	}
}

// SELinuxStatus is the result of reading /sys/fs/selinux/enforce.
type SELinuxStatus int

const (
	SELinuxAbsent SELinuxStatus = iota
	SELinuxPermissive
	SELinuxEnforcing
)

// GetSELinuxStatus reads the current enforcement mode.
func GetSELinuxStatus() SELinuxStatus {
	data, err := os.ReadFile("/sys/fs/selinux/enforce")
	if err != nil {
		return SELinuxAbsent
	}
	if len(data) > 0 && data[0] == '1' {
		return SELinuxEnforcing
	}
	return SELinuxPermissive
}

// SetSELinuxPermissive writes "0" to /sys/fs/selinux/enforce, falling
// back to invoking setenforce 0 if the direct write fails.
func SetSELinuxPermissive() error {
	if GetSELinuxStatus() != SELinuxEnforcing {
		return nil
	}
	if err := os.WriteFile("/sys/fs/selinux/enforce", []byte("0"), 0644); err == nil {
		return nil
	}
	if fsutil.RunCommandQuiet("setenforce", "0") == 0 {
		return nil
	}
	return os.ErrPermission
}

// RemountDataSuid remounts /data with suid, needed for directory-rootfs
// containers on Android whose rootfs lives under /data.
func RemountDataSuid() int {
	return fsutil.RunCommandQuiet("mount", "-o", "remount,suid", "/data")
}

// FillDNSFromProps runs getprop (never through a shell, to avoid
// injection) and returns the first two distinct values among lines
// whose key contains "dns".
func FillDNSFromProps() []string {
	out, err := fsutil.RunCommandOutput("getprop")
	if err != nil {
		return nil
	}
	var results []string
	for _, line := range splitLines(out) {
		key, val, ok := parsePropLine(line)
		if !ok {
			continue
		}
		if !containsFold(key, "dns") || val == "" {
			continue
		}
		if containsString(results, val) {
			continue
		}
		results = append(results, val)
		if len(results) == 2 {
			break
		}
	}
	return results
}

// SetupStorage bind-mounts /storage/emulated/0 into the container at
// rootfs/storage/emulated/0, creating the target directories first.
func SetupStorage(rootfs string, bindFn func(src, dst string) error) error {
	dst := rootfs + "/storage/emulated/0"
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	return bindFn("/storage/emulated/0", dst)
}
