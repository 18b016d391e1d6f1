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
// Package term allocates and manages the PTYs the boot sequencer binds
// into the container as /dev/console and /dev/ttyN, plus the host-side
// duplex proxy used by foreground start and enter.
package term

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"
)

// MaxAuxTTYs is the number of auxiliary ttyN devices created alongside
// the console (DS_MAX_TTYS).
const MaxAuxTTYs = 6

// PTY holds one allocated master/slave pair plus the slave's device
// path, exactly mirroring struct ds_tty_info.
type PTY struct {
	Master     *os.File
	Slave      *os.File
	SlavePath  string
}

// Allocate opens a new PTY pair, sets the slave to root:tty 0620 and
// close-on-exec on both ends.
func Allocate() (*PTY, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	if err := slave.Chmod(0620); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	_ = unix.Fchown(int(slave.Fd()), 0, ttyGID())
	unix.CloseOnExec(int(master.Fd()))
	unix.CloseOnExec(int(slave.Fd()))
	return &PTY{Master: master, Slave: slave, SlavePath: slave.Name()}, nil
}

// ttyGID returns the "tty" group gid: always 5, its conventional value,
// matching devpts's gid=5 mount option. No group lookup is done.
func ttyGID() int {
	return 5
}

// SetRaw disables canonical mode, echo, signal generation and CR/NL
// translation on f, leaving output processing enabled — the "raw-ish"
// mode the console and enter PTYs run in.
func SetRaw(f *os.File) (*xterm.State, error) {
	fd := int(f.Fd())
	state, err := xterm.GetState(fd)
	if err != nil {
		return nil, err
	}
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	t.Iflag &^= unix.INLCR | unix.ICRNL | unix.IXON
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return nil, err
	}
	return state, nil
}

// Restore undoes SetRaw.
func Restore(f *os.File, state *xterm.State) error {
	return xterm.Restore(int(f.Fd()), state)
}

// MakeControlling makes fd the controlling terminal of the calling
// process: create a new session, then TIOCSCTTY.
func MakeControlling(fd int) error {
	if _, err := unix.Setsid(); err != nil && err != unix.EPERM {
		return err
	}
	return unix.IoctlSetInt(fd, unix.TIOCSCTTY, 0)
}

// GetWinsize reads the current window size of fd, substituting a default
// 24x80 if the kernel reports 0x0 (the sudo-alignment workaround).
func GetWinsize(fd int) (*unix.Winsize, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return nil, err
	}
	if ws.Row == 0 && ws.Col == 0 {
		ws.Row, ws.Col = 24, 80
		if serr := unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, ws); serr != nil {
			return ws, serr
		}
	}
	return ws, nil
}

// SetWinsize applies ws to fd.
func SetWinsize(fd int, ws *unix.Winsize) error {
	return unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, ws)
}

// PropagateWinsize copies the window size of src onto dst.
func PropagateWinsize(src, dst *os.File) error {
	ws, err := GetWinsize(int(src.Fd()))
	if err != nil {
		return err
	}
	return SetWinsize(int(dst.Fd()), ws)
}

// Proxy duplexes hostIn/hostOut against master, forwarding SIGWINCH from
// hostIn to master, until either side hits EOF or stop is closed.
func Proxy(hostIn *os.File, hostOut io.Writer, master *os.File, stop <-chan struct{}) error {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	var once sync.Once
	done := make(chan error, 2)

	go func() {
		_, err := io.Copy(master, hostIn)
		once.Do(func() { done <- err })
	}()
	go func() {
		_, err := io.Copy(hostOut, master)
		once.Do(func() { done <- err })
	}()
	go func() {
		for range winch {
			_ = PropagateWinsize(hostIn, master)
		}
	}()

	select {
	case err := <-done:
		return err
	case <-stop:
		return nil
	}
}
