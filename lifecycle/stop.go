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
	"time"

	"github.com/dspacesrt/droidspaces/config"
	"github.com/dspacesrt/droidspaces/mount"
	"github.com/dspacesrt/droidspaces/netfix"
	"github.com/dspacesrt/droidspaces/platform"
	"github.com/dspacesrt/droidspaces/registry"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// stopGraceSignal is the real-time signal the original used to ask init
// for a clean shutdown before escalating. glibc reserves the kernel's
// first two real-time signals for its own use, so userspace SIGRTMIN is
// 34; +3 matches systemd's convention for a graceful halt request.
const stopGraceSignal = unix.Signal(34 + 3)

const stopPollInterval = 200 * time.Millisecond

// applyHostSideFixups runs the host-side half of networking fix-up plus
// Android-only optimizations, called once after the monitor hands back
// the init PID.
func applyHostSideFixups(cfg *config.Config) error {
	dns := netfix.ResolveDNS(cfg.DNSServers, func() []string {
		if platform.IsAndroid() {
			return platform.FillDNSFromProps()
		}
		return nil
	})
	rootfs := effectiveRootfs(cfg)
	if err := netfix.FixNetworkingHost(rootfs, dns, cfg.EnableIPv6); err != nil {
		return fmt.Errorf("lifecycle: host networking fix-up: %w", err)
	}

	if platform.IsAndroid() {
		netfix.ConfigureAndroidIptables()
		platform.AndroidOptimizations(true)
		if !cfg.IsImgMount {
			platform.RemountDataSuid()
		}
	}

	if err := platform.FirmwarePathAdd(rootfs); err != nil {
		return fmt.Errorf("lifecycle: firmware path add: %w", err)
	}
	return nil
}

func effectiveRootfs(cfg *config.Config) string {
	if cfg.VolatileMode && cfg.VolatileDir != "" {
		return mount.NewVolatileLayout(cfg.VolatileDir, cfg.Name).Merged
	}
	return cfg.RootfsPath
}

// Stop resolves name, signals its init process with an escalating
// sequence (SIGRTMIN+3 → SIGTERM at 2s → SIGKILL at StopTimeoutSeconds),
// and waits for the owning monitor to finish tearing it down.
func Stop(name string, skipUnmount bool, log *logrus.Entry) error {
	entry, err := resolveTarget(name)
	if err != nil {
		return err
	}
	if !registry.IsValidContainerPID(entry.PID) {
		return fmt.Errorf("%w: %s", registry.ErrNotRunning, entry.Name)
	}

	if skipUnmount {
		if err := registry.WriteRestartMarker(entry.Name); err != nil {
			log.Warnf("write restart marker failed: %v", err)
		}
	}

	if err := unix.Kill(entry.PID, stopGraceSignal); err != nil {
		return fmt.Errorf("lifecycle: signal %s: %w", entry.Name, err)
	}

	deadline := time.Now().Add(StopTimeoutSeconds * time.Second)
	termSent := false
	for time.Now().Before(deadline) {
		if !registry.IsValidContainerPID(entry.PID) {
			break
		}
		if !termSent && time.Until(deadline) <= (StopTimeoutSeconds-2)*time.Second {
			_ = unix.Kill(entry.PID, unix.SIGTERM)
			termSent = true
		}
		time.Sleep(stopPollInterval)
	}
	if registry.IsValidContainerPID(entry.PID) {
		_ = unix.Kill(entry.PID, unix.SIGKILL)
	}

	// init is dead or dying; the monitor that has held it since boot
	// observes the exit and runs StopCleanup itself (it alone has the
	// full boot spec — volatile layout, image mount path, and so on).
	// Wait for that teardown to actually finish before reporting done.
	reapDeadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(reapDeadline) {
		if unix.Kill(entry.PID, 0) != nil {
			break
		}
		time.Sleep(stopPollInterval)
	}
	if !skipUnmount {
		waitForSidecarRemoval(entry.Name, 5*time.Second)
	}
	log.Infof("container %q stopped", entry.Name)
	return nil
}

func resolveTarget(name string) (registry.Entry, error) {
	if name != "" {
		return registry.ResolveByName(name)
	}
	return registry.AutoResolve()
}

// waitForSidecarRemoval blocks until the monitor's own StopCleanup has
// removed name's pidfile (the signal that teardown is complete), or
// timeout elapses.
func waitForSidecarRemoval(name string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := registry.ResolveByName(name); err != nil {
			return
		}
		time.Sleep(stopPollInterval)
	}
}

// StopCleanup performs teardown after init exits (whether from a normal
// stop or the monitor observing init die on its own): it removes the
// volatile overlay before unmounting the loop image (overlay's lower
// layer must still exist for the unmount to be clean), best-effort
// reverts Android optimizations once no containers remain, and clears
// the registry sidecars unless skipUnmount (restart) is in effect.
func StopCleanup(cfg *config.Config, pid int, skipUnmount bool) error {
	unix.Sync()

	rootfs := effectiveRootfs(cfg)
	_ = platform.FirmwarePathRemove(rootfs)

	if platform.IsAndroid() && !skipUnmount && registry.CountRunning() == 0 {
		platform.AndroidOptimizations(false)
	}

	if cfg.VolatileMode && cfg.VolatileDir != "" && !skipUnmount {
		mount.RemoveVolatile(mount.NewVolatileLayout(cfg.VolatileDir, cfg.Name))
	}

	if skipUnmount {
		return nil
	}

	if mountPath, ok := registry.ReadMountPath(cfg.Name); ok && mountPath != "" {
		if err := mount.UnmountRootfsImg(mountPath); err != nil {
			return fmt.Errorf("lifecycle: unmount rootfs image: %w", err)
		}
	}
	registry.RemoveSidecars(cfg.Name)
	_ = os.Remove(specFilePath(cfg.Name))
	return nil
}
