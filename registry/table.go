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
package registry

import (
	"fmt"
	"strings"
)

// RenderTable draws a box-drawing Unicode table of entries, used by
// `show`/`list`.
func RenderTable(entries []Entry) string {
	headers := []string{"NAME", "PID", "STATUS", "MOUNT"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "stopped"
		if IsValidContainerPID(e.PID) {
			status = "running"
		}
		mount := e.MountPath
		if mount == "" {
			mount = "-"
		}
		rows = append(rows, []string{e.Name, fmt.Sprintf("%d", e.PID), status, mount})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	var b strings.Builder
	writeBorder(&b, widths, "┌", "┬", "┐")
	writeRow(&b, widths, headers)
	writeBorder(&b, widths, "├", "┼", "┤")
	for _, row := range rows {
		writeRow(&b, widths, row)
	}
	writeBorder(&b, widths, "└", "┴", "┘")
	return b.String()
}

func writeBorder(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(left)
	for i, w := range widths {
		b.WriteString(strings.Repeat("─", w+2))
		if i < len(widths)-1 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right + "\n")
}

func writeRow(b *strings.Builder, widths []int, cells []string) {
	b.WriteString("│")
	for i, c := range cells {
		fmt.Fprintf(b, " %-*s │", widths[i], c)
	}
	b.WriteString("\n")
}
