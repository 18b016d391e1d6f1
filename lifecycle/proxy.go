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

	"github.com/dspacesrt/droidspaces/term"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// runConsoleProxy puts the host terminal in raw mode and duplexes it
// against console.Master until the init process exits, then restores
// the terminal.
func runConsoleProxy(console *term.PTY, initPID int, log *logrus.Entry) error {
	state, err := term.SetRaw(os.Stdin)
	if err == nil {
		defer func() { _ = term.Restore(os.Stdin, state) }()
	}
	_ = term.PropagateWinsize(os.Stdin, console.Master)

	stop := make(chan struct{})
	go func() {
		for {
			if err := unix.Kill(initPID, 0); err != nil {
				close(stop)
				return
			}
			time.Sleep(200 * time.Millisecond)
		}
	}()

	if err := term.Proxy(os.Stdin, os.Stdout, console.Master, stop); err != nil {
		log.Debugf("console proxy ended: %v", err)
	}
	return nil
}

// pollReadiness polls /proc/<pid>/root/run/droidspaces at 10Hz until it
// appears or timeout elapses, used by the background start path to
// report a container that actually finished booting.
func pollReadiness(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	marker := markerPath(pid)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
		if err := unix.Kill(pid, 0); err != nil {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func markerPath(pid int) string {
	return fmt.Sprintf("/proc/%d/root/run/droidspaces", pid)
}
