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
package platform

import (
	"fmt"
	"os"
	"strings"

	"github.com/dspacesrt/droidspaces/fsutil"
)

// MinKernel is the absolute floor the runtime refuses to run below.
var MinKernel = fsutil.KernelVersion{Major: 3, Minor: 18}

// RecommendedKernel is the version below which start only warns.
var RecommendedKernel = fsutil.KernelVersion{Major: 4, Minor: 14}

// CheckResult is one line of the `check` diagnostic.
type CheckResult struct {
	Name string
	OK   bool
	Info string
}

// CheckRequirementsDetailed runs every preflight probe and returns one
// CheckResult per item, in the original check.c order: kernel version,
// overlay, devpts, cgroup mode, SELinux, Android host, and whether
// /sbin/init exists and is executable. There is no pivot_root probe.
func CheckRequirementsDetailed() []CheckResult {
	var results []CheckResult

	kv, err := fsutil.CurrentKernelVersion()
	if err != nil {
		results = append(results, CheckResult{"kernel version", false, "unreadable"})
	} else {
		ok := !kv.Less(MinKernel)
		info := kv.String()
		if ok && kv.Less(RecommendedKernel) {
			info += fmt.Sprintf(" (below recommended %s)", RecommendedKernel)
		}
		results = append(results, CheckResult{"kernel version", ok, info})
	}

	results = append(results, probeFS("/proc/filesystems", "overlay", "overlay support"))
	results = append(results, probeFS("/proc/filesystems", "devpts", "devpts support"))

	cgroupMode := "v1"
	if _, err := os.Stat("/sys/fs/cgroup/cgroup.controllers"); err == nil {
		cgroupMode = "v2"
	} else if fsutil.GrepFile("/proc/mounts", "cgroup2") {
		cgroupMode = "hybrid"
	}
	results = append(results, CheckResult{"cgroup mode", true, cgroupMode})

	switch GetSELinuxStatus() {
	case SELinuxEnforcing:
		results = append(results, CheckResult{"selinux", true, "enforcing"})
	case SELinuxPermissive:
		results = append(results, CheckResult{"selinux", true, "permissive"})
	default:
		results = append(results, CheckResult{"selinux", true, "absent"})
	}

	results = append(results, CheckResult{"android host", true, fmt.Sprintf("%v", IsAndroid())})

	_, err = fsutil.LookPath("/sbin/init")
	results = append(results, CheckResult{"/sbin/init reachable", err == nil || fsutil.IsExecutable("/sbin/init"), ""})

	return results
}

func probeFS(procFilesystems, name, label string) CheckResult {
	ok := fsutil.GrepFile(procFilesystems, name)
	return CheckResult{label, ok, ""}
}

// CheckRequirements reports whether every CheckRequirementsDetailed item
// passed, with a one-line summary naming any failed items; used by the
// preflight path of `start`.
func CheckRequirements() (bool, string) {
	results := CheckRequirementsDetailed()
	var failed []string
	for _, r := range results {
		if !r.OK {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) == 0 {
		return true, "all requirements satisfied"
	}
	return false, "failed: " + strings.Join(failed, ", ")
}
