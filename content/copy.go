// File: content/copy.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package content

import (
	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/iterate"
)

// Copy streams chunks from src to dst until the terminal write, then
// invokes cb. It is implemented via the Iterating Step Driver exactly as
// spec §4.8 describes: each step reads one chunk; on nil it demands and
// returns idle; on data it writes (marking the write terminal when the
// chunk is last); a non-fatal failure chunk is skipped and pumping
// continues; a fatal failure chunk or a write error propagates as a
// Driver failure.
func Copy(src *Source, dst *Sink, cb api.Callback) {
	done := false

	var drv *iterate.Driver
	drv = iterate.New(
		func() (iterate.Step, error) {
			if done {
				return iterate.StepSucceeded, nil
			}

			c, err := src.Read()
			if err != nil {
				return 0, err
			}
			if c == nil {
				if err := src.Demand(api.CallbackFunc{OnSucceeded: drv.Iterate, OnFailed: drv.Failed}); err != nil {
					return 0, err
				}
				return iterate.StepIdle, nil
			}

			if cause := c.FailureCause(); cause != nil {
				c.Release()
				if c.Fatal() {
					return 0, cause
				}
				drv.Succeeded() // synchronous: ignore and keep pumping
				return iterate.StepScheduled, nil
			}

			last := c.IsLast()
			dst.Write(last, c.Bytes(), api.CallbackFunc{
				OnSucceeded: func() {
					c.Release()
					if last {
						done = true
					}
					drv.Succeeded()
				},
				OnFailed: func(cause error) {
					c.Release()
					drv.Failed(cause)
				},
			})
			return iterate.StepScheduled, nil
		},
		cb.Succeeded,
		cb.Failed,
	)

	drv.Iterate()
}
