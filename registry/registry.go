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
// Package registry implements the PID-file workspace: path layout, name
// generation and collision avoidance, auto-resolution of the target
// container for commands that omit --name/--pidfile, and discovery by
// marker file.
package registry

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dspacesrt/droidspaces/fsutil"
	"github.com/dspacesrt/droidspaces/platform"
	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/goombaio/namegenerator"
	"golang.org/x/sys/unix"
)

var (
	ErrNoContainers = errors.New("registry: no containers running")
	ErrAmbiguous    = errors.New("registry: multiple containers running, specify --name")
	ErrNotRunning   = errors.New("registry: container not running")
)

const (
	pidsSubdir     = "Pids"
	workspaceAndroid = "/data/local/Droidspaces"
	workspaceLinux   = "/var/lib/Droidspaces"
	pidScanRetries   = 20
	pidScanDelay     = 200 * time.Millisecond
)

// WorkspaceDir returns the host-appropriate workspace root.
func WorkspaceDir() string {
	if platform.IsAndroid() {
		return workspaceAndroid
	}
	return workspaceLinux
}

// PidsDir returns the Pids/ subdirectory of the workspace.
func PidsDir() string {
	return filepath.Join(WorkspaceDir(), pidsSubdir)
}

// VolatileDir returns the tmpfs-backed scratch root --volatile overlays
// are built under, by default.
func VolatileDir() string {
	return filepath.Join(WorkspaceDir(), "Volatile")
}

// EnsureWorkspace creates the workspace and Pids/ directories.
func EnsureWorkspace() error {
	return fsutil.MkdirAllTolerant(PidsDir(), 0755)
}

func pidFilePath(name string) string    { return filepath.Join(PidsDir(), name+".pid") }
func mountFilePath(name string) string  { return filepath.Join(PidsDir(), name+".mount") }
func restartFilePath(name string) string { return filepath.Join(PidsDir(), name+".restart") }

// Entry is one resolved registry record.
type Entry struct {
	Name       string
	PID        int
	MountPath  string
	HasRestart bool
}

// GenerateContainerName derives "ID[-VERSION_ID]" from rootfs's
// /etc/os-release, falling back to "linux-container" if the file is
// missing or unparsable.
func GenerateContainerName(rootfs string) string {
	f, err := os.Open(filepath.Join(rootfs, "etc", "os-release"))
	if err != nil {
		return "linux-container"
	}
	defer f.Close()

	var id, version string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := osReleaseField(line, "ID"); ok {
			id = v
		}
		if v, ok := osReleaseField(line, "VERSION_ID"); ok {
			version = v
		}
	}
	if id == "" {
		return "linux-container"
	}
	if version != "" {
		return id + "-" + version
	}
	return id
}

func osReleaseField(line, key string) (string, bool) {
	prefix := key + "="
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	v := strings.TrimPrefix(line, prefix)
	v = strings.Trim(v, `"'`)
	return v, true
}

// generatedFallbackName produces a human-memorable name via the
// namegenerator, used only as a last-resort disambiguator when even the
// "-N" numeric suffix space is exhausted (practically never).
func generatedFallbackName(seed int64) string {
	return namegenerator.NewNameGenerator(seed).Generate()
}

// Index is an in-memory radix-tree snapshot of the Pids/ directory,
// rebuilt on demand, used for ordered/prefix-aware name lookups without
// re-reading the directory on every probe in FindAvailableName.
type Index struct {
	tree *iradix.Tree
}

// BuildIndex scans PidsDir and returns a fresh Index.
func BuildIndex() (*Index, error) {
	txn := iradix.New().Txn()
	entries, err := os.ReadDir(PidsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{tree: txn.Commit()}, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".pid") {
			name := strings.TrimSuffix(e.Name(), ".pid")
			txn.Insert([]byte(name), name)
		}
	}
	return &Index{tree: txn.Commit()}, nil
}

// Has reports whether name has a .pid entry in the index.
func (idx *Index) Has(name string) bool {
	_, ok := idx.tree.Get([]byte(name))
	return ok
}

// Names returns every indexed name in sorted (radix) order.
func (idx *Index) Names() []string {
	var out []string
	idx.tree.Root().Walk(func(k []byte, v interface{}) bool {
		out = append(out, string(k))
		return false
	})
	return out
}

// FindAvailableName tries base, then base-1, base-2, ... reclaiming a
// stale slot (PID file present but not a live valid container) as soon
// as one is found.
func FindAvailableName(base string) (string, error) {
	idx, err := BuildIndex()
	if err != nil {
		return "", err
	}
	if !idx.Has(base) || isStale(base) {
		return base, nil
	}
	for i := 1; i <= 1023; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !idx.Has(candidate) || isStale(candidate) {
			return candidate, nil
		}
	}
	for attempt := 0; attempt < 20; attempt++ {
		candidate := generatedFallbackName(time.Now().UnixNano() + int64(attempt))
		if !idx.Has(candidate) || isStale(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("registry: exhausted name suffixes for base %q", base)
}

func isStale(name string) bool {
	pid, err := readPidFile(name)
	if err != nil {
		return true
	}
	return !IsValidContainerPID(pid)
}

func readPidFile(name string) (int, error) {
	s, err := fsutil.ReadFileTrim(pidFilePath(name))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// IsValidContainerPID implements the deliberately loose liveness check
// (DESIGN.md OQ2): alive, and /run/droidspaces is reachable under its
// root, and cmdline contains the substring "init".
func IsValidContainerPID(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); err != nil {
		return false
	}
	if _, err := os.Stat(fmt.Sprintf("/proc/%d/root/run/droidspaces", pid)); err != nil {
		return false
	}
	cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil || !strings.Contains(string(cmdline), "init") {
		return false
	}
	return true
}

// SyncPidfile writes the host PID for name.
func SyncPidfile(name string, pid int) error {
	return fsutil.WriteFileAtomic(pidFilePath(name), []byte(strconv.Itoa(pid)), 0644)
}

// SaveMountPath writes the .mount sidecar.
func SaveMountPath(name, mountPath string) error {
	return fsutil.WriteFileAtomic(mountFilePath(name), []byte(mountPath), 0644)
}

// ReadMountPath reads the .mount sidecar, if any.
func ReadMountPath(name string) (string, bool) {
	s, err := fsutil.ReadFileTrim(mountFilePath(name))
	if err != nil {
		return "", false
	}
	return s, true
}

// WriteRestartMarker creates the zero-length .restart sidecar.
func WriteRestartMarker(name string) error {
	return fsutil.WriteFileAtomic(restartFilePath(name), nil, 0644)
}

// ConsumeRestartMarker reports whether a .restart marker exists for
// name, removing it if so.
func ConsumeRestartMarker(name string) bool {
	path := restartFilePath(name)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_ = os.Remove(path)
	return true
}

// RemoveSidecars removes the .pid, .mount and .restart files for name.
func RemoveSidecars(name string) {
	_ = os.Remove(pidFilePath(name))
	_ = os.Remove(mountFilePath(name))
	_ = os.Remove(restartFilePath(name))
}

// CountRunning returns how many entries in the index currently pass
// IsValidContainerPID. Intentionally a fresh, uncached scan (DESIGN.md
// OQ1): the race window this leaves is accepted, matching the original.
func CountRunning() int {
	idx, err := BuildIndex()
	if err != nil {
		return 0
	}
	n := 0
	for _, name := range idx.Names() {
		if pid, err := readPidFile(name); err == nil && IsValidContainerPID(pid) {
			n++
		}
	}
	return n
}

// List returns every entry in the registry regardless of liveness.
func List() ([]Entry, error) {
	idx, err := BuildIndex()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, name := range idx.Names() {
		pid, _ := readPidFile(name)
		mp, _ := ReadMountPath(name)
		out = append(out, Entry{
			Name:       name,
			PID:        pid,
			MountPath:  mp,
			HasRestart: fileExists(restartFilePath(name)),
		})
	}
	return out, nil
}

// AutoResolve picks the target container when the caller passed neither
// --name nor --pidfile explicitly: succeeds only if exactly one valid
// entry exists.
func AutoResolve() (Entry, error) {
	entries, err := List()
	if err != nil {
		return Entry{}, err
	}
	var running []Entry
	for _, e := range entries {
		if IsValidContainerPID(e.PID) {
			running = append(running, e)
		}
	}
	switch len(running) {
	case 0:
		return Entry{}, ErrNoContainers
	case 1:
		return running[0], nil
	default:
		return Entry{}, ErrAmbiguous
	}
}

// ResolveByName looks up name explicitly.
func ResolveByName(name string) (Entry, error) {
	pid, err := readPidFile(name)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotRunning, name)
	}
	mp, _ := ReadMountPath(name)
	return Entry{Name: name, PID: pid, MountPath: mp, HasRestart: fileExists(restartFilePath(name))}, nil
}

// FindInitPIDByUUID scans all PIDs looking for the one whose
// /proc/<pid>/root/run/<uuid> exists, retrying for late-arriving marker
// writes from a still-booting container.
func FindInitPIDByUUID(uuid string) (int, error) {
	for attempt := 0; attempt < pidScanRetries; attempt++ {
		pids, err := fsutil.ScanPIDs()
		if err == nil {
			for _, pid := range pids {
				marker := fmt.Sprintf("/proc/%d/root/run/%s", pid, uuid)
				if content, err := fsutil.ReadFileTrim(marker); err == nil && content == "init" {
					if IsValidContainerPID(pid) {
						return pid, nil
					}
				}
			}
		}
		time.Sleep(pidScanDelay)
	}
	return 0, fmt.Errorf("registry: no container found for uuid %s after %d attempts", uuid, pidScanRetries)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
