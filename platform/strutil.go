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

import "strings"

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

// parsePropLine parses one "getprop -A"-less output line of the form
// "[key]: [value]".
func parsePropLine(line string) (key, val string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	idx := strings.Index(line, "]: [")
	if idx < 0 {
		return "", "", false
	}
	key = line[1:idx]
	rest := line[idx+4:]
	val = strings.TrimSuffix(rest, "]")
	return key, val, true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
