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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsSpace(t *testing.T) {
	assert.True(t, containsSpace("echo hello"))
	assert.True(t, containsSpace("echo\thello"))
	assert.False(t, containsSpace("echo"))
	assert.False(t, containsSpace(""))
}

func TestRunInRejectsEmptyArgv(t *testing.T) {
	err := RunIn(1, nil, nopLogger())
	assert.Error(t, err)
}
