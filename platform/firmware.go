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
	"os"
	"strings"
)

const firmwarePathFile = "/sys/module/firmware_class/parameters/path"

// FirmwarePathAdd appends rootfs's firmware directory to the kernel's
// firmware search path, idempotently (P6): a second call for the same
// rootfs leaves exactly one entry.
func FirmwarePathAdd(rootfs string) error {
	entry := rootfs + "/lib/firmware"
	current := readFirmwarePath()
	if containsString(splitNonEmpty(current), entry) {
		return nil
	}
	entries := splitNonEmpty(current)
	entries = append(entries, entry)
	return writeFirmwarePath(strings.Join(entries, ":"))
}

// FirmwarePathRemove removes every entry matching rootfs's firmware
// directory by exact substring, matching the original's removal policy.
func FirmwarePathRemove(rootfs string) error {
	entry := rootfs + "/lib/firmware"
	current := splitNonEmpty(readFirmwarePath())
	var kept []string
	for _, e := range current {
		if e != entry {
			kept = append(kept, e)
		}
	}
	return writeFirmwarePath(strings.Join(kept, ":"))
}

func readFirmwarePath() string {
	data, err := os.ReadFile(firmwarePathFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeFirmwarePath(val string) error {
	return os.WriteFile(firmwarePathFile, []byte(val), 0644)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
