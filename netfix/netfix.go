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
// Package netfix performs the host-side and rootfs-side networking
// fix-ups: forwarding toggles, DNS materialisation, hostname/hosts/
// resolv.conf, and Android's AID group injection.
package netfix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dspacesrt/droidspaces/fsutil"
	"golang.org/x/sys/unix"
)

// DefaultDNS is the fallback resolver pair used when no explicit or
// platform-provided DNS servers are available.
var DefaultDNS = []string{"1.1.1.1", "8.8.8.8"}

// dnsSidecarName is the temp file the host side stashes the resolved
// DNS list in, for the rootfs side to pick up post-pivot (the rootfs
// can't reach host-only state once pivoted).
const dnsSidecarName = ".dns_servers"

// ResolveDNS returns, in priority order: explicit servers, Android
// property lookup, then DefaultDNS.
func ResolveDNS(explicit []string, androidPropsFn func() []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	if androidPropsFn != nil {
		if props := androidPropsFn(); len(props) > 0 {
			return props
		}
	}
	return DefaultDNS
}

// FixNetworkingHost runs the host-side half: enables IPv4 forwarding,
// sets IPv6 forwarding per enableIPv6, and stashes the resolved DNS list
// inside rootfs/.dns_servers for the rootfs-side half to consume after
// pivot_root.
func FixNetworkingHost(rootfs string, dns []string, enableIPv6 bool) error {
	if err := os.WriteFile("/proc/sys/net/ipv4/ip_forward", []byte("1"), 0644); err != nil {
		return fmt.Errorf("netfix: enable ipv4 forwarding: %w", err)
	}
	ipv6Val := "0"
	if enableIPv6 {
		ipv6Val = "1"
	}
	_ = os.WriteFile("/proc/sys/net/ipv6/conf/all/forwarding", []byte(ipv6Val), 0644)

	body := dnsServersBody(dns)
	path := filepath.Join(rootfs, dnsSidecarName)
	return fsutil.WriteFileAtomic(path, []byte(body), 0600)
}

func dnsServersBody(dns []string) string {
	var b strings.Builder
	for _, ip := range dns {
		fmt.Fprintf(&b, "nameserver %s\n", ip)
	}
	return b.String()
}

// FixNetworkingRootfs runs the rootfs-side half: must be called after
// pivot_root so all paths are relative to the new root. Sets the
// hostname, writes /etc/hostname and /etc/hosts, materialises
// /run/resolvconf/resolv.conf from the host-written sidecar and
// symlinks /etc/resolv.conf to it, and on Android injects AID groups.
func FixNetworkingRootfs(hostname string, android bool) error {
	if err := unix.Sethostname([]byte(hostname)); err != nil {
		return fmt.Errorf("netfix: sethostname: %w", err)
	}
	if err := fsutil.WriteFileAtomic("/etc/hostname", []byte(hostname+"\n"), 0644); err != nil {
		return err
	}

	hosts := fmt.Sprintf("127.0.0.1 localhost\n127.0.1.1 %s\n::1 localhost ip6-localhost ip6-loopback\n", hostname)
	if err := fsutil.WriteFileAtomic("/etc/hosts", []byte(hosts), 0644); err != nil {
		return err
	}

	body, err := os.ReadFile("/" + dnsSidecarName)
	if err == nil {
		if err := os.MkdirAll("/run/resolvconf", 0755); err != nil {
			return err
		}
		if err := fsutil.WriteFileAtomic("/run/resolvconf/resolv.conf", body, 0644); err != nil {
			return err
		}
		_ = os.Remove("/etc/resolv.conf")
		if err := os.Symlink("/run/resolvconf/resolv.conf", "/etc/resolv.conf"); err != nil {
			return err
		}
		_ = os.Remove("/" + dnsSidecarName)
	}

	if android {
		if err := injectAIDGroups(); err != nil {
			return err
		}
	}
	return nil
}

const aidGroupLines = "aid_inet:x:3003:\naid_net_raw:x:3004:\naid_net_admin:x:3005:\n"

func injectAIDGroups() error {
	data, _ := os.ReadFile("/etc/group")
	if strings.Contains(string(data), "aid_inet:") {
		return nil
	}
	f, err := os.OpenFile("/etc/group", os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(aidGroupLines); err != nil {
		return err
	}
	if _, err := fsutil.LookPath("usermod"); err == nil {
		fsutil.RunCommandQuiet("usermod", "-a", "-G", "aid_inet,aid_net_raw", "root")
	}
	return nil
}

// DetectIPv6 reports whether the host kernel has IPv6 enabled
// (/proc/net/if_inet6 exists), used only for the info diagnostics.
func DetectIPv6() bool {
	_, err := os.Stat("/proc/net/if_inet6")
	return err == nil
}
