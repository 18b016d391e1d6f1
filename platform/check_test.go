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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRequirementsDetailedCoversExpectedChecks(t *testing.T) {
	results := CheckRequirementsDetailed()

	names := make(map[string]bool)
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"kernel version", "overlay support", "devpts support", "cgroup mode", "selinux", "android host", "/sbin/init reachable"} {
		assert.True(t, names[want], "missing check %q", want)
	}
}

func TestCheckRequirementsSummarizesFailures(t *testing.T) {
	ok, summary := CheckRequirements()
	assert.NotEmpty(t, summary)
	if ok {
		assert.Equal(t, "all requirements satisfied", summary)
	} else {
		assert.Contains(t, summary, "failed:")
	}
}
