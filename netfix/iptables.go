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
package netfix

import "github.com/dspacesrt/droidspaces/fsutil"

// ConfigureAndroidIptables installs the fixed NAT/REDIRECT rule set
// Android devices need for container egress, since Android's netd
// otherwise drops forwarded traffic. The port range 1:65535 on the
// REDIRECT rules is intentional (§9 OQ3) — do not narrow it.
func ConfigureAndroidIptables() {
	fsutil.RunCommandQuiet("iptables", "-t", "filter", "-F")
	fsutil.RunCommandQuiet("ip6tables", "-t", "filter", "-F")
	fsutil.RunCommandQuiet("iptables", "-P", "FORWARD", "ACCEPT")
	fsutil.RunCommandQuiet("iptables", "-t", "nat", "-A", "POSTROUTING",
		"-s", "10.0.3.0/24", "!", "-d", "10.0.3.0/24", "-j", "MASQUERADE")
	fsutil.RunCommandQuiet("iptables", "-t", "nat", "-A", "OUTPUT",
		"-d", "127.0.0.1", "-p", "tcp", "--dport", "1:65535", "-j", "REDIRECT", "--to-ports", "1-65535")
	fsutil.RunCommandQuiet("iptables", "-t", "nat", "-A", "OUTPUT",
		"-d", "127.0.0.1", "-p", "udp", "--dport", "1:65535", "-j", "REDIRECT", "--to-ports", "1-65535")
}
