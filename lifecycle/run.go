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
	"github.com/sirupsen/logrus"
)

// RunIn joins pid's namespaces and execs argv with the host's stdio
// wired straight through (no PTY) — the "run" command, for scripted,
// non-interactive use. A single argument containing whitespace is
// routed through /bin/sh -c, mirroring how urfave/cli's SkipFlagParsing
// hands run its raw, unparsed tail.
func RunIn(pid int, argv []string, log *logrus.Entry) error {
	if len(argv) == 0 {
		return fmt.Errorf("lifecycle: run requires a command")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_ = cgroup.Attach(pid)

	if err := joinNamespaces(pid, log); err != nil {
		return err
	}

	name, args := argv[0], argv[1:]
	if len(argv) == 1 && containsSpace(argv[0]) {
		name, args = "/bin/sh", []string{"-c", argv[0]}
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.Env = envWithTerm()
	cmd.SysProcAttr = &syscall.SysProcAttr{}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("lifecycle: run %v: %w", argv, err)
	}
	return nil
}

func containsSpace(s string) bool {
	for _, r := range s {
		if r == ' ' || r == '\t' {
			return true
		}
	}
	return false
}
