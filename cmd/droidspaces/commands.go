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
	"strconv"
	"strings"

	"github.com/dspacesrt/droidspaces/config"
	"github.com/dspacesrt/droidspaces/fsutil"
	"github.com/dspacesrt/droidspaces/lifecycle"
	"github.com/dspacesrt/droidspaces/mount"
	"github.com/dspacesrt/droidspaces/platform"
	"github.com/dspacesrt/droidspaces/registry"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

var startCommand = cli.Command{
	Name:      "start",
	Usage:     "create and boot a container",
	ArgsUsage: "--rootfs PATH",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "name", Usage: "container name (default: derived from rootfs)"},
		cli.StringFlag{Name: "hostname", Usage: "container hostname (default: --name)"},
		cli.StringFlag{Name: "rootfs", Usage: "rootfs directory or .img file"},
		cli.StringFlag{Name: "pidfile", Usage: "override pidfile path"},
		cli.StringFlag{Name: "conf", Usage: "container.config path (default: sibling of --rootfs)"},
		cli.BoolFlag{Name: "foreground", Usage: "attach console and block until exit"},
		cli.BoolFlag{Name: "hw-access", Usage: "bind every /sys subdirectory instead of an isolated virtual/net view"},
		cli.BoolFlag{Name: "volatile", Usage: "run against a disposable tmpfs overlay, leaving rootfs untouched"},
		cli.BoolFlag{Name: "enable-ipv6", Usage: "enable IPv6 forwarding"},
		cli.BoolFlag{Name: "android-storage", Usage: "bind /storage/emulated/0 (Android only)"},
		cli.BoolFlag{Name: "selinux-permissive", Usage: "force SELinux permissive for this container (Android only)"},
		cli.StringFlag{Name: "dns", Usage: "comma-separated DNS servers"},
		cli.StringFlag{Name: "bind", Usage: "comma-separated SRC:DEST bind mounts"},
	},
	Action: func(ctx *cli.Context) error {
		if kv, err := fsutil.CurrentKernelVersion(); err == nil {
			if kv.Less(platform.MinKernel) {
				return fmt.Errorf("kernel %s is below the minimum supported %s", kv, platform.MinKernel)
			}
			if kv.Less(platform.RecommendedKernel) {
				log.Warnf("kernel %s is below the recommended %s", kv, platform.RecommendedKernel)
			}
		}
		cfg, err := buildConfigFromFlags(ctx)
		if err != nil {
			return err
		}
		if ok, reason := platform.CheckRequirements(); !ok {
			log.Warnf("preflight check: %s", reason)
		}
		prof := runProfiler(ctx)
		defer func() {
			if prof != nil {
				prof.Stop()
			}
		}()
		return lifecycle.Start(cfg, log)
	},
}

var stopCommand = cli.Command{
	Name:      "stop",
	Usage:     "stop a running container",
	ArgsUsage: "[NAME]",
	Action: func(ctx *cli.Context) error {
		return lifecycle.Stop(ctx.Args().First(), false, log)
	},
}

var restartCommand = cli.Command{
	Name:      "restart",
	Usage:     "stop and restart a container against its existing mount",
	ArgsUsage: "[NAME]",
	Action: func(ctx *cli.Context) error {
		entry, err := resolveEntry(ctx.Args().First())
		if err != nil {
			return err
		}
		cfg := &config.Config{Name: entry.Name, RootfsPath: entry.MountPath}
		return lifecycle.Restart(cfg, log)
	},
}

var enterCommand = cli.Command{
	Name:      "enter",
	Usage:     "open an interactive shell inside a running container",
	ArgsUsage: "[NAME] [USER]",
	Action: func(ctx *cli.Context) error {
		args := ctx.Args()
		name, user := "", ""
		if len(args) > 0 {
			name = args[0]
		}
		if len(args) > 1 {
			user = args[1]
		}
		entry, err := resolveEntry(name)
		if err != nil {
			return err
		}
		return lifecycle.Enter(entry.PID, user, log)
	},
}

var runCommand = cli.Command{
	Name:            "run",
	Usage:           "run a single command inside a running container",
	ArgsUsage:       "NAME CMD [ARGS...]",
	SkipFlagParsing: true,
	Action: func(ctx *cli.Context) error {
		args := []string(ctx.Args())
		if len(args) < 2 {
			return fmt.Errorf("run requires a container name and a command")
		}
		entry, err := resolveEntry(args[0])
		if err != nil {
			return err
		}
		return lifecycle.RunIn(entry.PID, args[1:], log)
	},
}

var statusCommand = cli.Command{
	Name:      "status",
	Usage:     "print whether a container is running",
	ArgsUsage: "[NAME]",
	Action: func(ctx *cli.Context) error {
		running, entry, err := lifecycle.CheckStatus(ctx.Args().First())
		if err != nil {
			return err
		}
		state := "stopped"
		if running {
			state = "running"
		}
		fmt.Printf("%s: %s (pid %d)\n", entry.Name, state, entry.PID)
		return nil
	},
}

var pidCommand = cli.Command{
	Name:      "pid",
	Usage:     "print the container's init PID",
	ArgsUsage: "[NAME]",
	Action: func(ctx *cli.Context) error {
		running, entry, err := lifecycle.CheckStatus(ctx.Args().First())
		if err != nil || !running {
			fmt.Println("NONE")
			return cli.NewExitError("", 1)
		}
		fmt.Println(entry.PID)
		return nil
	},
}

var infoCommand = cli.Command{
	Name:      "info",
	Usage:     "print detailed information about a container and host",
	ArgsUsage: "[NAME]",
	Action: func(ctx *cli.Context) error {
		out, err := lifecycle.ShowInfo(ctx.Args().First())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var showCommand = cli.Command{
	Name:    "show",
	Aliases: []string{"list"},
	Usage:   "list every tracked container",
	Action: func(ctx *cli.Context) error {
		out, err := lifecycle.ShowList()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var scanCommand = cli.Command{
	Name:  "scan",
	Usage: "adopt untracked containers and sweep stale loop mounts",
	Action: func(ctx *cli.Context) error {
		adopted, swept, err := registry.Scan()
		if err != nil {
			return err
		}
		registry.RefreshCache()
		for _, n := range adopted {
			log.Infof("adopted untracked container %q", n)
		}
		for _, p := range swept {
			log.Infof("swept stale mount %q", p)
		}
		if len(adopted) == 0 && len(swept) == 0 {
			log.Info("nothing to do")
		}
		return nil
	},
}

var checkCommand = cli.Command{
	Name:  "check",
	Usage: "run the host preflight diagnostics",
	Action: func(ctx *cli.Context) error {
		for _, r := range platform.CheckRequirementsDetailed() {
			mark := "ok"
			if !r.OK {
				mark = "FAIL"
			}
			if r.Info != "" {
				fmt.Printf("[%s] %-24s %s\n", mark, r.Name, r.Info)
			} else {
				fmt.Printf("[%s] %s\n", mark, r.Name)
			}
		}
		return nil
	},
}

func resolveEntry(name string) (registry.Entry, error) {
	if name == "" {
		return registry.AutoResolve()
	}
	if pid, err := strconv.Atoi(name); err == nil && registry.IsValidContainerPID(pid) {
		return registry.Entry{Name: name, PID: pid}, nil
	}
	return registry.ResolveByName(name)
}

func buildConfigFromFlags(ctx *cli.Context) (*config.Config, error) {
	rootfs := ctx.String("rootfs")
	if rootfs == "" {
		return nil, fmt.Errorf("start: --rootfs is required")
	}

	fs := afero.NewOsFs()
	confPath := ctx.String("conf")
	if confPath == "" {
		confPath = config.AutoConfigPath(rootfs)
	}

	cfg := &config.Config{}
	extra := map[string]string{}
	if loaded, ex, err := config.LoadFile(fs, confPath); err == nil {
		cfg, extra = loaded, ex
	}

	if cfg.RootfsPath == "" {
		cfg.RootfsPath = rootfs
	}
	cfg.ConfPath = confPath

	if strings.HasSuffix(rootfs, ".img") {
		mountPoint, err := mount.MountRootfsImg(rootfs)
		if err != nil {
			return nil, fmt.Errorf("start: mount rootfs image: %w", err)
		}
		cfg.RootfsImgPath = rootfs
		cfg.RootfsPath = mountPoint
		cfg.IsImgMount = true
		cfg.ImgMountPoint = mountPoint
	}

	if v := ctx.String("name"); v != "" {
		cfg.Name = v
	}
	if cfg.Name == "" {
		base := registry.GenerateContainerName(cfg.RootfsPath)
		name, err := registry.FindAvailableName(base)
		if err != nil {
			return nil, err
		}
		cfg.Name = name
	}
	if v := ctx.String("hostname"); v != "" {
		cfg.Hostname = v
	} else if cfg.Hostname == "" {
		cfg.Hostname = cfg.Name
	}
	if v := ctx.String("pidfile"); v != "" {
		cfg.Pidfile = v
	}
	if ctx.IsSet("foreground") {
		cfg.Foreground = ctx.Bool("foreground")
	}
	if ctx.IsSet("hw-access") {
		cfg.HWAccess = ctx.Bool("hw-access")
	}
	if ctx.IsSet("volatile") {
		cfg.VolatileMode = ctx.Bool("volatile")
	}
	if ctx.IsSet("enable-ipv6") {
		cfg.EnableIPv6 = ctx.Bool("enable-ipv6")
	}
	if ctx.IsSet("android-storage") {
		cfg.AndroidStorage = ctx.Bool("android-storage")
	}
	if ctx.IsSet("selinux-permissive") {
		cfg.SELinuxPermissive = ctx.Bool("selinux-permissive")
	}
	if v := ctx.String("dns"); v != "" {
		cfg.DNSServers = strings.Split(v, ",")
	}
	if v := ctx.String("bind"); v != "" {
		binds, err := config.ParseBindMounts(v)
		if err != nil {
			return nil, err
		}
		cfg.Binds = append(cfg.Binds, binds...)
	}

	cfg.UUID = fsutil.NewUUID()

	if cfg.SELinuxPermissive && platform.IsAndroid() {
		if err := platform.SetSELinuxPermissive(); err != nil {
			log.Warnf("selinux permissive request failed: %v", err)
		}
	}

	if err := config.SaveFile(fs, confPath, cfg, extra); err != nil {
		log.Warnf("save config failed: %v", err)
	}

	return cfg, nil
}
