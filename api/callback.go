// File: api/callback.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package api

// Callback is a continuation with exactly two terminal transitions. An
// implementation must be safe to invoke exactly once; invoking it a second
// time is a usage error on the caller's part, not the callback's.
type Callback interface {
	Succeeded()
	Failed(cause error)
}

// CallbackFunc adapts two plain functions into a Callback.
type CallbackFunc struct {
	OnSucceeded func()
	OnFailed    func(error)
}

func (f CallbackFunc) Succeeded() {
	if f.OnSucceeded != nil {
		f.OnSucceeded()
	}
}

func (f CallbackFunc) Failed(cause error) {
	if f.OnFailed != nil {
		f.OnFailed(cause)
	}
}

// NopCallback discards completion notifications; useful for fire-and-forget
// writes in tests and examples.
var NopCallback Callback = CallbackFunc{}
