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

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// InterfaceSummary is a one-line, read-only description of a host
// network interface, used by the info diagnostics. This package
// never creates links — that remains a spec Non-goal.
type InterfaceSummary struct {
	Name  string
	Up    bool
	Addrs []string
}

// ListInterfaces enumerates host interfaces via netlink, read-only.
func ListInterfaces() ([]InterfaceSummary, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("netfix: list interfaces: %w", err)
	}
	var out []InterfaceSummary
	for _, l := range links {
		addrs, _ := netlink.AddrList(l, netlink.FAMILY_ALL)
		s := InterfaceSummary{
			Name: l.Attrs().Name,
			Up:   l.Attrs().OperState == netlink.OperUp,
		}
		for _, a := range addrs {
			s.Addrs = append(s.Addrs, a.IPNet.String())
		}
		out = append(out, s)
	}
	return out, nil
}
