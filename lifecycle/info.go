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
package lifecycle

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/dspacesrt/droidspaces/fsutil"
	"github.com/dspacesrt/droidspaces/netfix"
	"github.com/dspacesrt/droidspaces/platform"
	"github.com/dspacesrt/droidspaces/registry"
)

// Architecture reports GOARCH translated into the uname-style label the
// original diagnostics printed.
func Architecture() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm64":
		return "aarch64"
	case "arm":
		return "armv7l"
	default:
		return runtime.GOARCH
	}
}

// HostPrettyName reads PRETTY_NAME out of /etc/os-release, falling back
// to "Unknown".
func HostPrettyName() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "Unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := osReleaseValue(line, "PRETTY_NAME"); ok {
			return v
		}
	}
	return "Unknown"
}

func osReleaseValue(line, key string) (string, bool) {
	prefix := key + "="
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(line, prefix), `"`), true
}

// CheckStatus reports whether name (or the auto-resolved container) is
// currently running.
func CheckStatus(name string) (bool, registry.Entry, error) {
	entry, err := resolveTarget(name)
	if err != nil {
		return false, registry.Entry{}, err
	}
	return registry.IsValidContainerPID(entry.PID), entry, nil
}

// ShowInfo renders a human-readable diagnostic block for name (or the
// auto-resolved container): host facts plus the live entry.
func ShowInfo(name string) (string, error) {
	entry, err := resolveTarget(name)
	if err != nil {
		return "", err
	}
	running := registry.IsValidContainerPID(entry.PID)

	var b strings.Builder
	fmt.Fprintf(&b, "Name:        %s\n", entry.Name)
	fmt.Fprintf(&b, "Running:     %v\n", running)
	fmt.Fprintf(&b, "PID:         %d\n", entry.PID)
	if entry.MountPath != "" {
		fmt.Fprintf(&b, "Mount path:  %s\n", entry.MountPath)
	}
	fmt.Fprintf(&b, "Restarting:  %v\n", entry.HasRestart)
	fmt.Fprintf(&b, "Host arch:   %s\n", Architecture())
	fmt.Fprintf(&b, "Host OS:     %s\n", HostPrettyName())
	if kv, err := fsutil.CurrentKernelVersion(); err == nil {
		fmt.Fprintf(&b, "Host kernel: %s\n", kv.String())
	}
	fmt.Fprintf(&b, "Android:     %v\n", platform.IsAndroid())
	fmt.Fprintf(&b, "IPv6:        %v\n", netfix.DetectIPv6())
	if ifaces, err := netfix.ListInterfaces(); err == nil {
		fmt.Fprintf(&b, "Interfaces:\n")
		for _, i := range ifaces {
			state := "down"
			if i.Up {
				state = "up"
			}
			fmt.Fprintf(&b, "  %-10s %-4s %s\n", i.Name, state, strings.Join(i.Addrs, ", "))
		}
	}
	return b.String(), nil
}

// ShowList renders the registry table for every tracked container.
func ShowList() (string, error) {
	entries, err := registry.List()
	if err != nil {
		return "", err
	}
	registry.RefreshCache()
	return registry.RenderTable(entries), nil
}
