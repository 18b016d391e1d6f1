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
package term

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestTtyGIDDefault(t *testing.T) {
	assert.Equal(t, 5, ttyGID())
}

func TestAllocate(t *testing.T) {
	p, err := Allocate()
	if err != nil {
		t.Skipf("pty allocation unavailable in this environment: %v", err)
	}
	defer p.Master.Close()
	defer p.Slave.Close()

	assert.NotNil(t, p.Master)
	assert.NotNil(t, p.Slave)
	assert.True(t, strings.HasPrefix(p.SlavePath, "/dev/pts/"))
}

func TestWinsizeRoundtrip(t *testing.T) {
	p, err := Allocate()
	if err != nil {
		t.Skipf("pty allocation unavailable in this environment: %v", err)
	}
	defer p.Master.Close()
	defer p.Slave.Close()

	want := &unix.Winsize{Row: 40, Col: 120}
	require.NoError(t, SetWinsize(int(p.Master.Fd()), want))

	got, err := GetWinsize(int(p.Master.Fd()))
	require.NoError(t, err)
	assert.Equal(t, want.Row, got.Row)
	assert.Equal(t, want.Col, got.Col)
}

func TestGetWinsizeDefaultsWhenZero(t *testing.T) {
	p, err := Allocate()
	if err != nil {
		t.Skipf("pty allocation unavailable in this environment: %v", err)
	}
	defer p.Master.Close()
	defer p.Slave.Close()

	require.NoError(t, SetWinsize(int(p.Master.Fd()), &unix.Winsize{}))

	got, err := GetWinsize(int(p.Master.Fd()))
	require.NoError(t, err)
	assert.EqualValues(t, 24, got.Row)
	assert.EqualValues(t, 80, got.Col)

	// The substituted default must reach the kernel, not just the
	// returned struct.
	raw, err := unix.IoctlGetWinsize(int(p.Master.Fd()), unix.TIOCGWINSZ)
	require.NoError(t, err)
	assert.EqualValues(t, 24, raw.Row)
	assert.EqualValues(t, 80, raw.Col)
}

func TestPropagateWinsize(t *testing.T) {
	src, err := Allocate()
	if err != nil {
		t.Skipf("pty allocation unavailable in this environment: %v", err)
	}
	defer src.Master.Close()
	defer src.Slave.Close()
	dst, err := Allocate()
	require.NoError(t, err)
	defer dst.Master.Close()
	defer dst.Slave.Close()

	require.NoError(t, SetWinsize(int(src.Master.Fd()), &unix.Winsize{Row: 33, Col: 99}))
	require.NoError(t, PropagateWinsize(src.Master, dst.Master))

	got, err := GetWinsize(int(dst.Master.Fd()))
	require.NoError(t, err)
	assert.EqualValues(t, 33, got.Row)
	assert.EqualValues(t, 99, got.Col)
}
