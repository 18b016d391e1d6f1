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
	"os"

	"github.com/dspacesrt/droidspaces/boot"
	"github.com/dspacesrt/droidspaces/lifecycle"
	"github.com/dspacesrt/droidspaces/logging"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// Globals populated at build time via -ldflags.
var (
	version  string
	commitId string
	builtAt  string
)

var log *logrus.Entry

func runProfiler(ctx *cli.Context) interface{ Stop() } {
	switch {
	case ctx.GlobalBool("cpu-profiling"):
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case ctx.GlobalBool("memory-profiling"):
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		return nil
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "droidspaces"
	app.Usage = "minimal single-binary container runtime for Linux and Android hosts"
	app.Version = version
	if version == "" {
		app.Version = boot.Version
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("droidspaces\n\tversion: \t%s\n\tcommit: \t%s\n\tbuilt at: \t%s\n",
			c.App.Version, commitId, builtAt)
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose", Usage: "enable debug-level logging"},
		cli.BoolFlag{Name: "cpu-profiling", Hidden: true},
		cli.BoolFlag{Name: "memory-profiling", Hidden: true},
	}

	app.Before = func(ctx *cli.Context) error {
		l := logging.New(os.Stderr, ctx.GlobalBool("verbose"))
		log = logrus.NewEntry(l)
		return nil
	}

	app.Commands = []cli.Command{
		startCommand,
		stopCommand,
		restartCommand,
		enterCommand,
		runCommand,
		statusCommand,
		pidCommand,
		infoCommand,
		showCommand,
		scanCommand,
		checkCommand,
		docsCommand,
		{
			Name:   lifecycle.MonitorSubcommand,
			Hidden: true,
			Action: func(ctx *cli.Context) error {
				os.Exit(lifecycle.RunMonitor(ctx.Args().First()))
				return nil
			},
		},
		{
			Name:   lifecycle.InitSubcommand,
			Hidden: true,
			Action: func(ctx *cli.Context) error {
				os.Exit(lifecycle.RunInit(ctx.Args().First()))
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if log != nil {
			log.Fatal(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
