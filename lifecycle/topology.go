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
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"
	"unsafe"

	systemddaemon "github.com/coreos/go-systemd/daemon"
	"github.com/dspacesrt/droidspaces/boot"
	"github.com/dspacesrt/droidspaces/cgroup"
	"github.com/dspacesrt/droidspaces/config"
	"github.com/dspacesrt/droidspaces/mount"
	"github.com/dspacesrt/droidspaces/registry"
	"github.com/dspacesrt/droidspaces/term"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// MonitorSubcommand and InitSubcommand are the hidden cli.App command
// names cmd/droidspaces registers for re-exec.
const (
	MonitorSubcommand = "__monitor"
	InitSubcommand    = "__init"
)

// StopTimeoutSeconds bounds the graceful-stop escalation (§5).
const StopTimeoutSeconds = 15

// Start runs the full parent-side start sequence: allocate PTYs, spawn
// the monitor, wait for the init PID over the sync pipe, apply host-side
// fix-ups, and either proxy the console (foreground) or poll readiness
// (background).
func Start(cfg *config.Config, log *logrus.Entry) error {
	if err := registry.EnsureWorkspace(); err != nil {
		return fmt.Errorf("lifecycle: ensure workspace: %w", err)
	}

	// Early pre-flight for volatile mode, before any host changes: PTY
	// allocation, cgroup discovery and the monitor/init fork all follow
	// this point, so an f2fs lower layer must be rejected here rather
	// than inside the forked init where cleanup would be required.
	if cfg.VolatileMode {
		if err := mount.CheckVolatileEligible(cfg.RootfsPath); err != nil {
			return fmt.Errorf("lifecycle: volatile preflight: %w", err)
		}
	}

	console, err := term.Allocate()
	if err != nil {
		return fmt.Errorf("lifecycle: allocate console pty: %w", err)
	}
	var auxTTYs []*term.PTY
	for i := 0; i < term.MaxAuxTTYs; i++ {
		pty, err := term.Allocate()
		if err != nil {
			return fmt.Errorf("lifecycle: allocate aux tty %d: %w", i+1, err)
		}
		auxTTYs = append(auxTTYs, pty)
	}

	if cfg.Foreground {
		_ = term.PropagateWinsize(os.Stdin, console.Master)
	}

	if cfg.VolatileMode {
		if cfg.VolatileDir == "" {
			cfg.VolatileDir = registry.VolatileDir()
		}
		if err := mount.EnsureVolatileBaseTmpfs(cfg.VolatileDir); err != nil {
			return fmt.Errorf("lifecycle: volatile tmpfs base: %w", err)
		}
	}

	hierarchies, err := cgroup.DiscoverHost()
	if err != nil {
		log.Warnf("cgroup discovery failed: %v", err)
	}
	cgroupNSActive := cgroup.CgroupNamespaceSupported()
	if cgroupNSActive {
		if err := cgroup.PreStepMkdirAndJoin(cfg.Name); err != nil {
			log.Warnf("cgroup namespace pre-step failed: %v", err)
		}
	}

	auxPaths := make([]string, len(auxTTYs))
	for i, p := range auxTTYs {
		auxPaths[i] = p.SlavePath
	}
	spec := &BootSpec{
		Cfg:            cfg,
		ConsoleSlave:   console.SlavePath,
		AuxSlaves:      auxPaths,
		Hierarchies:    hierarchies,
		CgroupNSActive: cgroupNSActive,
		IsSystemdInit:  detectSystemdInit(cfg.RootfsPath),
	}

	specPath := specFilePath(cfg.Name)
	if err := WriteSpec(specPath, spec); err != nil {
		return fmt.Errorf("lifecycle: write boot spec: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("lifecycle: sync pipe: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("lifecycle: resolve executable path: %w", err)
	}

	monitorCmd := exec.Command(exe, MonitorSubcommand, specPath)
	monitorCmd.ExtraFiles = []*os.File{pw}
	monitorCmd.Stderr = os.Stderr
	monitorCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := monitorCmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("lifecycle: start monitor: %w", err)
	}
	pw.Close()

	initPID, err := readPIDFromPipe(pr)
	pr.Close()
	if err != nil {
		return fmt.Errorf("lifecycle: read init pid from monitor: %w", err)
	}

	if err := applyHostSideFixups(cfg); err != nil {
		log.Warnf("host-side fix-up incomplete: %v", err)
	}

	if err := registry.SyncPidfile(cfg.Name, initPID); err != nil {
		log.Warnf("write pidfile failed: %v", err)
	}
	if cfg.IsImgMount {
		if err := registry.SaveMountPath(cfg.Name, cfg.ImgMountPoint); err != nil {
			log.Warnf("write mount sidecar failed: %v", err)
		}
	}

	notifyReady()

	if cfg.Foreground {
		log.Infof("container %q started (pid %d), proxying console", cfg.Name, initPID)
		return runConsoleProxy(console, initPID, log)
	}

	if ok := pollReadiness(initPID, 5*time.Second); !ok {
		return fmt.Errorf("lifecycle: container %q did not become ready", cfg.Name)
	}
	log.Infof("container %q started (pid %d)", cfg.Name, initPID)
	return nil
}

func notifyReady() {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}
	_, _ = systemddaemon.SdNotify(false, systemddaemon.SdNotifyReady)
}

func specFilePath(name string) string {
	return os.TempDir() + "/droidspaces-" + name + ".json"
}

func readPIDFromPipe(pr *os.File) (int, error) {
	r := bufio.NewReader(pr)
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(trimNewline(line))
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func detectSystemdInit(rootfs string) bool {
	target, err := os.Readlink(rootfs + "/sbin/init")
	if err == nil {
		return indexOf(target, "systemd") >= 0
	}
	data, err := os.ReadFile(rootfs + "/sbin/init")
	if err != nil {
		return false
	}
	return indexOf(string(data), "systemd") >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// RunMonitor is the __monitor hidden-subcommand entry point.
func RunMonitor(specPath string) int {
	log := logrus.NewEntry(logrus.StandardLogger())

	spec, err := ReadSpec(specPath)
	if err != nil {
		log.Errorf("monitor: read spec: %v", err)
		return 1
	}

	setProcessName("ds-monitor")

	nsFlags := unix.CLONE_NEWUTS | unix.CLONE_NEWIPC | unix.CLONE_NEWPID
	if spec.CgroupNSActive {
		nsFlags |= unix.CLONE_NEWCGROUP
	}
	if err := unix.Unshare(nsFlags); err != nil {
		log.Errorf("monitor: unshare: %v", err)
		return 1
	}

	exe, err := os.Executable()
	if err != nil {
		log.Errorf("monitor: resolve executable: %v", err)
		return 1
	}
	initCmd := exec.Command(exe, InitSubcommand, specPath)
	initCmd.Stdin, initCmd.Stdout, initCmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := initCmd.Start(); err != nil {
		log.Errorf("monitor: start init: %v", err)
		return 1
	}

	pipeFile := os.NewFile(3, "sync-pipe")
	fmt.Fprintf(pipeFile, "%d\n", initCmd.Process.Pid)
	pipeFile.Close()

	waitErr := initCmd.Wait()

	skipUnmount := registry.ConsumeRestartMarker(spec.Cfg.Name)
	if err := StopCleanup(spec.Cfg, initCmd.Process.Pid, skipUnmount); err != nil {
		log.Warnf("monitor: cleanup after exit failed: %v", err)
	}
	_ = os.Remove(specPath)

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}

// RunInit is the __init hidden-subcommand entry point: it runs the boot
// sequencer and, on success, never returns (execve replaces it).
func RunInit(specPath string) int {
	log := logrus.NewEntry(logrus.StandardLogger())

	spec, err := ReadSpec(specPath)
	if err != nil {
		log.Errorf("init: read spec: %v", err)
		return 1
	}

	opt := boot.Options{
		Cfg:            spec.Cfg,
		Hierarchies:    spec.Hierarchies,
		CgroupNSActive: spec.CgroupNSActive,
		Console:        &term.PTY{SlavePath: spec.ConsoleSlave},
		IsSystemdInit:  spec.IsSystemdInit,
		Log:            log,
	}
	for _, p := range spec.AuxSlaves {
		opt.AuxTTYs = append(opt.AuxTTYs, &term.PTY{SlavePath: p})
	}

	if err := boot.Run(opt); err != nil {
		log.Errorf("init: boot sequence failed: %v", err)
		return 1
	}
	return 0
}

// setProcessName implements PR_SET_NAME (prctl(2)), renaming the
// monitor to "ds-monitor" in ps/top output.
func setProcessName(name string) {
	var buf [16]byte
	copy(buf[:], name)
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}

