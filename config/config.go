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
// Package config holds the container configuration record and its
// key=value file persistence.
package config

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// BindMount is one --bind-mount SRC:DEST pair.
type BindMount struct {
	Src  string
	Dest string
}

// Config is the in-memory container record, one-to-one with the original
// ds_config struct.
type Config struct {
	Name             string
	Hostname         string
	UUID             string
	RootfsPath       string
	RootfsImgPath    string
	Pidfile          string
	ConfPath         string
	Foreground       bool
	HWAccess         bool
	VolatileMode     bool
	EnableIPv6       bool
	AndroidStorage   bool
	SELinuxPermissive bool
	DNSServers       []string
	Binds            []BindMount

	// Runtime-only fields, not persisted.
	ContainerPID  int
	IsImgMount    bool
	ImgMountPoint string
	VolatileDir   string
}

const maxBinds = 16

// recognizedKeys mirrors §6's config-file key set.
var recognizedKeys = map[string]bool{
	"name": true, "hostname": true, "rootfs_path": true, "pidfile": true,
	"enable_ipv6": true, "enable_android_storage": true, "enable_hw_access": true,
	"selinux_permissive": true, "volatile_mode": true, "foreground": true,
	"bind_mounts": true, "dns_servers": true,
}

// ParseBindMount parses one "SRC:DEST" token.
func ParseBindMount(tok string) (BindMount, error) {
	parts := strings.SplitN(tok, ":", 2)
	if len(parts) != 2 {
		return BindMount{}, fmt.Errorf("bind mount %q: expected SRC:DEST", tok)
	}
	src, dest := parts[0], parts[1]
	if !strings.HasPrefix(dest, "/") {
		return BindMount{}, fmt.Errorf("bind mount %q: dest must be absolute", tok)
	}
	if strings.Contains(dest, "..") {
		return BindMount{}, fmt.Errorf("bind mount %q: dest must not contain ..", tok)
	}
	return BindMount{Src: src, Dest: dest}, nil
}

// ParseBindMounts parses a comma-joined SRC:DEST,SRC:DEST... list,
// rejecting more than maxBinds entries.
func ParseBindMounts(spec string) ([]BindMount, error) {
	if spec == "" {
		return nil, nil
	}
	toks := strings.Split(spec, ",")
	if len(toks) > maxBinds {
		return nil, fmt.Errorf("too many bind mounts: %d > %d", len(toks), maxBinds)
	}
	out := make([]BindMount, 0, len(toks))
	for _, t := range toks {
		bm, err := ParseBindMount(strings.TrimSpace(t))
		if err != nil {
			return nil, err
		}
		out = append(out, bm)
	}
	return out, nil
}

func joinBindMounts(binds []BindMount) string {
	parts := make([]string, 0, len(binds))
	for _, b := range binds {
		parts = append(parts, b.Src+":"+b.Dest)
	}
	return strings.Join(parts, ",")
}

// LoadFile reads a key=value config file from fs, applying recognized
// keys onto a fresh Config and preserving unrecognized ones in extra for
// round-trip on SaveFile.
func LoadFile(fs afero.Fs, path string) (*Config, map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cfg := &Config{}
	extra := map[string]string{}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])

		switch key {
		case "name":
			cfg.Name = val
		case "hostname":
			cfg.Hostname = val
		case "rootfs_path":
			cfg.RootfsPath = val
		case "pidfile":
			cfg.Pidfile = val
		case "enable_ipv6":
			cfg.EnableIPv6 = parseBool(val)
		case "enable_android_storage":
			cfg.AndroidStorage = parseBool(val)
		case "enable_hw_access":
			cfg.HWAccess = parseBool(val)
		case "selinux_permissive":
			cfg.SELinuxPermissive = parseBool(val)
		case "volatile_mode":
			cfg.VolatileMode = parseBool(val)
		case "foreground":
			cfg.Foreground = parseBool(val)
		case "bind_mounts":
			binds, err := ParseBindMounts(val)
			if err != nil {
				return nil, nil, err
			}
			cfg.Binds = binds
		case "dns_servers":
			cfg.DNSServers = splitDNS(val)
		default:
			extra[key] = val
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return cfg, extra, nil
}

// SaveFile writes cfg back out as key=value, re-emitting any unrecognized
// keys captured by LoadFile verbatim.
func SaveFile(fs afero.Fs, path string, cfg *Config, extra map[string]string) error {
	var b strings.Builder
	writeKV := func(k, v string) {
		if v == "" {
			return
		}
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	writeKV("name", cfg.Name)
	writeKV("hostname", cfg.Hostname)
	writeKV("rootfs_path", cfg.RootfsPath)
	writeKV("pidfile", cfg.Pidfile)
	fmt.Fprintf(&b, "enable_ipv6=%v\n", cfg.EnableIPv6)
	fmt.Fprintf(&b, "enable_android_storage=%v\n", cfg.AndroidStorage)
	fmt.Fprintf(&b, "enable_hw_access=%v\n", cfg.HWAccess)
	fmt.Fprintf(&b, "selinux_permissive=%v\n", cfg.SELinuxPermissive)
	fmt.Fprintf(&b, "volatile_mode=%v\n", cfg.VolatileMode)
	fmt.Fprintf(&b, "foreground=%v\n", cfg.Foreground)
	if len(cfg.Binds) > 0 {
		writeKV("bind_mounts", joinBindMounts(cfg.Binds))
	}
	if len(cfg.DNSServers) > 0 {
		writeKV("dns_servers", strings.Join(cfg.DNSServers, ","))
	}
	for k, v := range extra {
		if recognizedKeys[k] {
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, []byte(b.String()), 0644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

// AutoConfigPath returns the sibling container.config path for a
// directory or image rootfs.
func AutoConfigPath(rootfsPath string) string {
	if rootfsPath == "" {
		return ""
	}
	dir := rootfsPath
	if idx := strings.LastIndex(rootfsPath, "/"); idx >= 0 {
		dir = rootfsPath[:idx]
	}
	return dir + "/container.config"
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func splitDNS(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	return fields
}
