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
package platform

import (
	"fmt"

	"github.com/dspacesrt/droidspaces/fsutil"
	seccomp "github.com/seccomp/libseccomp-golang"
	"golang.org/x/sys/unix"
)

// namespaceFlagMask selects every namespace-creation flag
// (CLONE_NEWNS|NEWUTS|NEWIPC|NEWUSER|NEWPID|NEWNET|NEWCGROUP) bit
// pattern the original C filter masks unshare/clone's first argument
// against.
const namespaceFlagMask = 0x7E020000

// legacyKernelCutoffMajor is the kernel major version below which the
// shield is installed (kernels < 5.0).
const legacyKernelCutoffMajor = 5

// NeedsSeccompShield reports whether the running kernel is old enough
// to need the keyring/namespace-creation shield.
func NeedsSeccompShield(kv fsutil.KernelVersion) bool {
	return kv.Major < legacyKernelCutoffMajor
}

// InstallSeccompShield builds and loads a seccomp-BPF filter that:
//  1. returns ENOSYS for keyctl/add_key/request_key (dodges a
//     FBE-induced keyring deadlock in systemd), and
//  2. if isSystemd, additionally returns EPERM for unshare/clone calls
//     whose first argument has any namespace-creation bit set (dodges a
//     legacy grab_super() VFS deadlock).
//
// Sets PR_SET_NO_NEW_PRIVS itself before loading; must run before execve.
func InstallSeccompShield(isSystemd bool) error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("platform: set no_new_privs: %w", err)
	}

	filter, err := seccomp.NewFilter(seccomp.ActAllow)
	if err != nil {
		return fmt.Errorf("platform: new seccomp filter: %w", err)
	}
	defer filter.Release()

	for _, name := range []string{"keyctl", "add_key", "request_key"} {
		call, err := seccomp.GetSyscallFromName(name)
		if err != nil {
			continue // not defined on this arch, nothing to shield
		}
		if err := filter.AddRule(call, seccomp.ActErrno.SetReturnCode(int16(unix.ENOSYS))); err != nil {
			return fmt.Errorf("platform: add rule for %s: %w", name, err)
		}
	}

	if isSystemd {
		for _, name := range []string{"unshare", "clone"} {
			call, err := seccomp.GetSyscallFromName(name)
			if err != nil {
				continue
			}
			// One rule per namespace bit; separate rules are OR-ed, so a
			// single bit set is enough to match.
			for bit := uint64(1); bit <= namespaceFlagMask; bit <<= 1 {
				if namespaceFlagMask&bit == 0 {
					continue
				}
				cond, err := seccomp.MakeCondition(0, seccomp.CompareMaskedEqual, bit, bit)
				if err != nil {
					return fmt.Errorf("platform: build condition for %s: %w", name, err)
				}
				if err := filter.AddRuleConditional(call, seccomp.ActErrno.SetReturnCode(int16(unix.EPERM)), []seccomp.ScmpCondition{cond}); err != nil {
					return fmt.Errorf("platform: add conditional rule for %s: %w", name, err)
				}
			}
		}
	}

	if err := filter.Load(); err != nil {
		return fmt.Errorf("platform: load seccomp filter: %w", err)
	}
	return nil
}
