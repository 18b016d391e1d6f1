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
// Package fsutil provides the low-level filesystem, UUID, kernel-version
// and subprocess helpers shared by every other package: the Go analogue
// of the original runtime's utils.c.
package fsutil

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// WriteFileAtomic writes data to path by writing to a sibling temp file
// then renaming over the destination, so readers never see a partial
// write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFileTrim reads a whole file and strips all trailing
// newline/carriage-return characters, matching marker-file reads like
// "run/<uuid>" which always hold a one-line payload.
func ReadFileTrim(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// MkdirAllTolerant recursively creates dir, tolerating EEXIST for the
// final component even if it's owned by a different uid (matches the
// original's permissive mkdir usage).
func MkdirAllTolerant(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// RemoveAllQuiet removes a path tree, ignoring "not exist" errors.
func RemoveAllQuiet(path string) error {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// NewUUID returns a 32-lowercase-hex-char UUID with no dashes, the form
// used as the run-directory marker filename.
func NewUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// KernelVersion is a parsed uname release, major.minor only.
type KernelVersion struct {
	Major int
	Minor int
}

// Less reports whether v is strictly below other.
func (v KernelVersion) Less(other KernelVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

func (v KernelVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentKernelVersion parses uname(2)'s release string.
func CurrentKernelVersion() (KernelVersion, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return KernelVersion{}, err
	}
	release := charsToString(uts.Release[:])
	return ParseKernelVersion(release)
}

// ParseKernelVersion parses a release string like "5.15.0-91-generic" or
// "4.14.180+" into major/minor.
func ParseKernelVersion(release string) (KernelVersion, error) {
	fields := strings.FieldsFunc(release, func(r rune) bool {
		return r == '.' || r == '-' || r == '+'
	})
	if len(fields) < 2 {
		return KernelVersion{}, fmt.Errorf("fsutil: unparsable kernel release %q", release)
	}
	major, err := strconv.Atoi(fields[0])
	if err != nil {
		return KernelVersion{}, fmt.Errorf("fsutil: unparsable kernel major %q", release)
	}
	minor, err := strconv.Atoi(fields[1])
	if err != nil {
		return KernelVersion{}, fmt.Errorf("fsutil: unparsable kernel minor %q", release)
	}
	return KernelVersion{Major: major, Minor: minor}, nil
}

func charsToString(c []byte) string {
	n := bytes.IndexByte(c, 0)
	if n < 0 {
		n = len(c)
	}
	return string(c[:n])
}

// ScanPIDs returns every numeric PID directory under /proc.
func ScanPIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// GrepFile reports whether needle appears anywhere in a capped read
// (1 MiB) of path.
func GrepFile(path, needle string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	const capBytes = 1 << 20
	r := bufio.NewReaderSize(f, 64*1024)
	buf := make([]byte, 0, capBytes)
	tmp := make([]byte, 64*1024)
	for len(buf) < capBytes {
		n, err := r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			break
		}
	}
	return bytes.Contains(buf, []byte(needle))
}

// RunCommandQuiet execs name with args (never through a shell),
// discarding stdout/stderr, and returns the exit code (127 on exec
// failure, matching execvp's shell convention).
func RunCommandQuiet(name string, args ...string) int {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 127
	}
	return 0
}

// RunCommandOutput execs name with args and returns its stdout (stderr
// is not captured).
func RunCommandOutput(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	out, err := cmd.Output()
	return string(out), err
}

// LookPath is a thin wrapper kept so callers don't import os/exec
// directly just to check binary presence.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// IsExecutable reports whether path exists and has any execute bit set,
// following symlinks (the original tolerates /sbin/init being a symlink
// to systemd).
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode()&0111 != 0
}

// JoinNoEscape joins dir and rel, refusing any result that escapes dir
// after cleaning (belt-and-suspenders alongside securejoin in mount).
func JoinNoEscape(dir, rel string) (string, error) {
	full := filepath.Join(dir, rel)
	cleanDir := filepath.Clean(dir)
	if full != cleanDir && !strings.HasPrefix(full, cleanDir+string(filepath.Separator)) {
		return "", fmt.Errorf("fsutil: path %q escapes %q", rel, dir)
	}
	return full, nil
}
