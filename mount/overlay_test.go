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
package mount

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVolatileLayout(t *testing.T) {
	layout := NewVolatileLayout("/var/lib/droidspaces/Volatile", "alpine-3.19")

	base := filepath.Join("/var/lib/droidspaces/Volatile", "alpine-3.19")
	assert.Equal(t, base, layout.Base)
	assert.Equal(t, filepath.Join(base, "upper"), layout.Upper)
	assert.Equal(t, filepath.Join(base, "work"), layout.Work)
	assert.Equal(t, filepath.Join(base, "merged"), layout.Merged)
}
