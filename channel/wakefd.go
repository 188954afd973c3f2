// File: channel/wakefd.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package channel

import (
	"os"
	"time"
)

// wakeFD is a portable self-pipe: os.Pipe works identically on every
// platform the reactor backends target, unlike eventfd (Linux-only).
type wakeFD struct {
	r, w *os.File
}

func newWakeFD() (*wakeFD, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &wakeFD{r: r, w: w}, nil
}

func (w *wakeFD) fd() uintptr {
	return w.r.Fd()
}

func (w *wakeFD) signal() error {
	_, err := w.w.Write([]byte{1})
	return err
}

// drain discards every byte currently buffered in the pipe. The reactor
// treats the self-pipe purely as an edge ("something changed, go
// check"), so byte counts carry no meaning; draining everything here
// each time the owning Channel's Read is invoked keeps the pipe from
// filling and blocking future signal calls.
func (w *wakeFD) drain() {
	var buf [64]byte
	for {
		_ = w.r.SetReadDeadline(time.Unix(0, 1))
		n, err := w.r.Read(buf[:])
		if n == 0 || err != nil {
			return
		}
	}
}

func (w *wakeFD) close() error {
	_ = w.w.Close()
	return w.r.Close()
}
