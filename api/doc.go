// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package api collects the embedder-facing capability interfaces that the
// reactor core depends on but never constructs itself: channels, callbacks,
// executors, and schedulers. Concrete implementations live in sibling
// packages (channel, workerpool, ...); api only fixes the contracts.
package api
