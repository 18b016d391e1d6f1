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
// Package boot implements the in-PID-1 sequencer: the ordered
// transformation from "rootfs + config" to "exec /sbin/init" that runs
// inside the process the monitor forked after unsharing namespaces.
package boot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dspacesrt/droidspaces/cgroup"
	"github.com/dspacesrt/droidspaces/config"
	"github.com/dspacesrt/droidspaces/fsutil"
	"github.com/dspacesrt/droidspaces/mount"
	"github.com/dspacesrt/droidspaces/netfix"
	"github.com/dspacesrt/droidspaces/platform"
	"github.com/dspacesrt/droidspaces/term"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Options bundles everything the sequencer needs that can't be derived
// from Config alone: pre-discovered host cgroup hierarchies (gathered
// before the mount-namespace unshare removes visibility into the host's
// view), the allocated PTYs, and whether a cgroup namespace was
// unshared by the monitor.
type Options struct {
	Cfg             *config.Config
	Hierarchies     []cgroup.Hierarchy
	CgroupNSActive  bool
	Console         *term.PTY
	AuxTTYs         []*term.PTY
	IsSystemdInit   bool
	Log             *logrus.Entry
}

// Run executes the full 27-step boot sequence and, on success, replaces
// the process image with /sbin/init — it never returns on success.
func Run(opt Options) error {
	cfg := opt.Cfg
	log := opt.Log

	// 1. Unshare the mount namespace.
	if err := unix.Unshare(unix.CLONE_NEWNS); err != nil {
		return fmt.Errorf("boot: unshare mount ns: %w", err)
	}

	// 2. Mark the host root MS_PRIVATE recursively to prevent leak-back.
	if err := mount.MakePrivateRecursive("/"); err != nil {
		return fmt.Errorf("boot: make / private: %w", err)
	}

	// 3. Android legacy-kernel seccomp shield.
	if platform.IsAndroid() {
		if kv, err := fsutil.CurrentKernelVersion(); err == nil && platform.NeedsSeccompShield(kv) {
			if err := platform.InstallSeccompShield(opt.IsSystemdInit); err != nil {
				log.Warnf("seccomp shield install failed: %v", err)
			}
		}
	}

	effectiveRootfs := cfg.RootfsPath

	// 4. Volatile overlay, inside the new mount namespace.
	if cfg.VolatileMode {
		layout := mount.NewVolatileLayout(cfg.VolatileDir, cfg.Name)
		merged, err := mount.SetupVolatile(layout, cfg.RootfsPath, platform.IsAndroid())
		if err != nil {
			return fmt.Errorf("boot: volatile overlay: %w", err)
		}
		effectiveRootfs = merged
	}

	// 5. Bind-mount the rootfs onto itself (pivot_root precondition).
	if err := mount.BindMount(effectiveRootfs, effectiveRootfs); err != nil {
		return fmt.Errorf("boot: bind rootfs onto itself: %w", err)
	}

	// 6. chdir(rootfs); recover uuid from the sync file, then unlink it.
	if err := unix.Chdir(effectiveRootfs); err != nil {
		return fmt.Errorf("boot: chdir rootfs: %w", err)
	}
	uuidFile := filepath.Join(effectiveRootfs, ".droidspaces-uuid")
	if uuid, err := fsutil.ReadFileTrim(uuidFile); err == nil && cfg.UUID == "" {
		cfg.UUID = uuid
	}
	_ = os.Remove(uuidFile)

	// 7. mkdir .old_root
	oldRoot := filepath.Join(effectiveRootfs, ".old_root")
	if err := os.MkdirAll(oldRoot, 0700); err != nil {
		return fmt.Errorf("boot: mkdir .old_root: %w", err)
	}

	// 8. /dev setup.
	if err := mount.SetupDev(effectiveRootfs, cfg.HWAccess); err != nil {
		return fmt.Errorf("boot: setup /dev: %w", err)
	}

	// 9. Mount proc.
	procPath := filepath.Join(effectiveRootfs, "proc")
	if err := mount.Mount("proc", procPath, "proc", unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
		return fmt.Errorf("boot: mount proc: %w", err)
	}

	// 10. Mount sysfs, then hw-access per-subdir binds or isolated virtual/net.
	sysPath := filepath.Join(effectiveRootfs, "sys")
	if err := mount.Mount("sysfs", sysPath, "sysfs", unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
		return fmt.Errorf("boot: mount sysfs: %w", err)
	}
	if cfg.HWAccess {
		if err := bindEverySysSubdir(sysPath); err != nil {
			return fmt.Errorf("boot: bind /sys subdirs: %w", err)
		}
	} else {
		virtNet := filepath.Join(sysPath, "devices", "virtual", "net")
		if err := os.MkdirAll(virtNet, 0755); err != nil {
			return fmt.Errorf("boot: mkdir sys/devices/virtual/net: %w", err)
		}
		if err := mount.Mount("sysfs", virtNet, "sysfs", unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
			return fmt.Errorf("boot: mount isolated virtual/net sysfs: %w", err)
		}
	}

	// 11. Pre-create sys/fs/cgroup while /sys is RW.
	if err := os.MkdirAll(filepath.Join(sysPath, "fs", "cgroup"), 0755); err != nil {
		return fmt.Errorf("boot: mkdir sys/fs/cgroup: %w", err)
	}

	// 12. Remount sys read-only.
	if err := mount.RemountReadOnly(sysPath); err != nil {
		log.Warnf("remount /sys read-only failed: %v", err)
	}

	// 13. Mask sys/class/tty/console/active.
	if err := mount.MaskPath(filepath.Join(sysPath, "class", "tty", "console", "active")); err != nil {
		log.Warnf("mask console/active failed: %v", err)
	}

	// 14. tmpfs on run.
	runPath := filepath.Join(effectiveRootfs, "run")
	if err := mount.Mount("none", runPath, "tmpfs", unix.MS_NOSUID|unix.MS_NODEV, "mode=755"); err != nil {
		return fmt.Errorf("boot: mount tmpfs on run: %w", err)
	}

	// 15. Bind PTY slaves onto dev/console and dev/ttyN.
	if err := mount.BindMount(opt.Console.SlavePath, filepath.Join(effectiveRootfs, "dev", "console")); err != nil {
		return fmt.Errorf("boot: bind console pty: %w", err)
	}
	var ttyNames []string
	for i, pty := range opt.AuxTTYs {
		n := i + 1
		target := filepath.Join(effectiveRootfs, "dev", fmt.Sprintf("tty%d", n))
		if err := mount.BindMount(pty.SlavePath, target); err != nil {
			return fmt.Errorf("boot: bind tty%d: %w", n, err)
		}
		ttyNames = append(ttyNames, fmt.Sprintf("tty%d", n))
	}

	// 16. Write markers run/<uuid> and run/droidspaces.
	if err := fsutil.WriteFileAtomic(filepath.Join(runPath, cfg.UUID), []byte("init"), 0644); err != nil {
		return fmt.Errorf("boot: write uuid marker: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(runPath, "droidspaces"), []byte(Version), 0644); err != nil {
		return fmt.Errorf("boot: write version marker: %w", err)
	}

	// 17. Cgroup setup.
	if err := cgroup.Setup(sysPath, opt.Hierarchies, opt.CgroupNSActive, cfg.HWAccess); err != nil {
		log.Warnf("cgroup setup failed: %v", err)
	}

	// 18. Android storage bind.
	if cfg.AndroidStorage {
		bindFn := func(src, dst string) error { return mount.BindMount(src, dst) }
		if err := platform.SetupStorage(effectiveRootfs, bindFn); err != nil {
			log.Warnf("android storage bind failed: %v", err)
		}
	}

	// 19. Custom bind mounts.
	for _, b := range cfg.Binds {
		dest, err := mount.BindDestInRootfs(effectiveRootfs, b.Dest)
		if err != nil {
			return fmt.Errorf("boot: bind mount %s: %w", b.Dest, err)
		}
		if err := mount.BindMount(b.Src, dest); err != nil {
			return fmt.Errorf("boot: bind mount %s -> %s: %w", b.Src, b.Dest, err)
		}
	}

	// 20. pivot_root(".", ".old_root"); chdir("/").
	if err := mount.PivotRoot(".", ".old_root"); err != nil {
		return fmt.Errorf("boot: pivot_root: %w", err)
	}

	// 21. Private devpts, must be post-pivot.
	if err := mount.SetupDevpts(); err != nil {
		log.Warnf("devpts setup failed: %v", err)
	}

	// 22. Rootfs-side networking fix-up.
	if err := netfix.FixNetworkingRootfs(cfg.Hostname, platform.IsAndroid()); err != nil {
		log.Warnf("rootfs networking fix-up failed: %v", err)
	}

	// 23. Lazy-unmount /.old_root; remove it.
	if err := mount.LazyUnmount("/.old_root"); err != nil {
		log.Warnf("unmount .old_root failed: %v", err)
	}
	_ = os.Remove("/.old_root")

	// 24. Write /run/systemd/container.
	if err := os.MkdirAll("/run/systemd", 0755); err != nil {
		log.Warnf("mkdir /run/systemd failed: %v", err)
	} else if err := fsutil.WriteFileAtomic("/run/systemd/container", []byte("droidspaces"), 0644); err != nil {
		log.Warnf("write /run/systemd/container failed: %v", err)
	}

	// 25. Reset environment.
	ResetEnvironment(ttyNames)

	// 26. Controlling console + default winsize + permissions.
	if err := attachConsole(opt.Console); err != nil {
		return fmt.Errorf("boot: attach console: %w", err)
	}

	// 27. execve("/sbin/init").
	log.Infof("handing off to /sbin/init")
	if err := unix.Exec("/sbin/init", []string{"/sbin/init"}, os.Environ()); err != nil {
		return fmt.Errorf("boot: execve /sbin/init: %w", err)
	}
	panic("unreachable: execve returned without error")
}

// Version is the marker content written to run/droidspaces.
const Version = "4.4.3"

func bindEverySysSubdir(sysPath string) error {
	entries, err := os.ReadDir(sysPath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(sysPath, e.Name())
		if err := mount.BindMount(path, path); err != nil {
			return err
		}
	}
	return nil
}

func attachConsole(console *term.PTY) error {
	f, err := os.OpenFile("/dev/console", os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	fd := int(f.Fd())
	for _, std := range []int{0, 1, 2} {
		if err := unix.Dup2(fd, std); err != nil {
			return err
		}
	}
	if err := term.MakeControlling(0); err != nil {
		return err
	}
	if ws, err := term.GetWinsize(0); err != nil || (ws.Row == 0 && ws.Col == 0) {
		_ = term.SetWinsize(0, &unix.Winsize{Row: 24, Col: 80})
	}
	_ = os.Chmod("/dev/console", 0620)
	_ = unix.Chown("/dev/console", 0, 5)
	return nil
}

// ResetEnvironment clears the environment and sets the minimal set of
// variables a container init expects.
func ResetEnvironment(ttyNames []string) {
	termVal := os.Getenv("TERM")
	if termVal == "" {
		termVal = "xterm-256color"
	}
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			os.Unsetenv(kv[:idx])
		}
	}
	os.Setenv("PATH", "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin")
	os.Setenv("TERM", termVal)
	os.Setenv("HOME", "/root")
	os.Setenv("container", "droidspaces")
	os.Setenv("container_ttys", strings.Join(ttyNames, " "))
}
