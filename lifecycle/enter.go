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
	"os/exec"
	"runtime"
	"syscall"

	"github.com/dspacesrt/droidspaces/cgroup"
	"github.com/dspacesrt/droidspaces/fsutil"
	"github.com/dspacesrt/droidspaces/term"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// nsKinds lists the five namespaces enter/run join, in the order they
// must be entered: mnt last among the "resource" namespaces since user
// namespaces aren't supported here, but before the exec that depends on
// the new root being visible. pid is entered but — per setns(2) — only
// affects processes this thread subsequently forks, matching how the
// boot monitor uses CLONE_NEWPID.
var nsKinds = []string{"ipc", "uts", "net", "pid", "mnt"}

// joinNamespaces opens and setns()-joins every namespace of pid on the
// locked calling thread. mnt is mandatory; the others are best-effort
// so a container booted with a reduced namespace set (e.g. no network
// isolation) can still be entered.
func joinNamespaces(pid int, log *logrus.Entry) error {
	for _, kind := range nsKinds {
		path := fmt.Sprintf("/proc/%d/ns/%s", pid, kind)
		fd, err := unix.Open(path, unix.O_RDONLY, 0)
		if err != nil {
			if kind == "mnt" {
				return fmt.Errorf("lifecycle: open mnt namespace: %w", err)
			}
			log.Debugf("namespace %s unavailable for pid %d: %v", kind, pid, err)
			continue
		}
		err = unix.Setns(fd, 0)
		unix.Close(fd)
		if err != nil {
			if kind == "mnt" {
				return fmt.Errorf("lifecycle: join mnt namespace: %w", err)
			}
			log.Debugf("join namespace %s failed: %v", kind, err)
		}
	}
	return nil
}

// shellCandidates returns the fallback argv chain to try inside the
// entered root, in priority order: su -l <user> (if a user was
// requested), then a small set of common shells.
func shellCandidates(user string) [][]string {
	var out [][]string
	if user != "" {
		if _, err := fsutil.LookPath("su"); err == nil {
			out = append(out, []string{"su", "-l", user})
		}
	}
	for _, sh := range []string{"/bin/bash", "/bin/ash", "/bin/sh"} {
		if fsutil.IsExecutable(sh) {
			out = append(out, []string{sh})
		}
	}
	return out
}

// Enter joins pid's namespaces on the calling (locked) OS thread, then
// execs an interactive shell against a freshly allocated PTY, proxying
// the host terminal until the shell exits.
func Enter(pid int, user string, log *logrus.Entry) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_ = cgroup.Attach(pid)

	if err := joinNamespaces(pid, log); err != nil {
		return err
	}

	candidates := shellCandidates(user)
	if len(candidates) == 0 {
		return fmt.Errorf("lifecycle: no usable shell found in container for pid %d", pid)
	}

	pty, err := term.Allocate()
	if err != nil {
		return fmt.Errorf("lifecycle: allocate pty: %w", err)
	}
	defer pty.Master.Close()
	defer pty.Slave.Close()

	_ = term.PropagateWinsize(os.Stdin, pty.Master)

	var lastErr error
	for _, argv := range candidates {
		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = pty.Slave, pty.Slave, pty.Slave
		cmd.Env = envWithTerm()
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setsid:  true,
			Setctty: true,
			Ctty:    0,
		}
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}
		pty.Slave.Close()

		state, rawErr := term.SetRaw(os.Stdin)
		if rawErr == nil {
			defer func() { _ = term.Restore(os.Stdin, state) }()
		}

		stop := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(stop)
		}()
		_ = term.Proxy(os.Stdin, os.Stdout, pty.Master, stop)
		return nil
	}
	return fmt.Errorf("lifecycle: starting shell in container failed: %w", lastErr)
}

// envWithTerm returns the current environment with TERM guaranteed to
// be set, defaulting to xterm when absent.
func envWithTerm() []string {
	env := os.Environ()
	for _, kv := range env {
		if len(kv) >= 5 && kv[:5] == "TERM=" {
			return env
		}
	}
	return append(env, "TERM=xterm")
}
