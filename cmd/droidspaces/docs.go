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
package main

import (
	"fmt"

	"github.com/urfave/cli"
)

const docsText = `droidspaces - minimal single-binary container runtime

  start   --rootfs PATH [--name NAME] [--foreground] [--volatile] ...
              Create (if needed) and boot a container.
  stop    [NAME]
              Signal a container's init to shut down (SIGRTMIN+3, then
              SIGTERM, then SIGKILL), and unmount its backing storage.
  restart [NAME]
              Stop a container without unmounting, then start it again
              against the same backing storage.
  enter   [NAME] [USER]
              Open an interactive shell inside a running container.
  run     NAME CMD [ARGS...]
              Run a single non-interactive command inside a container.
  status  [NAME]
              Print whether a container is running.
  info    [NAME]
              Print detailed container and host diagnostics.
  show, list
              List every tracked container.
  scan
              Adopt untracked containers and sweep stale loop mounts.
  check
              Run host preflight diagnostics (kernel, overlay, devpts,
              cgroup mode, SELinux, Android detection, /sbin/init).

When NAME is omitted, the command applies to the single running
container if there is exactly one; otherwise it is an error.
`

var docsCommand = cli.Command{
	Name:  "docs",
	Usage: "print the command reference",
	Action: func(ctx *cli.Context) error {
		fmt.Print(docsText)
		return nil
	},
}
