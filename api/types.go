// File: api/types.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Shared identifiers and stat snapshots used for logging and metrics.

package api

import (
	"time"

	"github.com/rs/xid"
)

// NewID mints a compact, sortable identifier for an Endpoint or
// Connection, used only for log lines and stats, never for protocol
// semantics.
func NewID() string {
	return xid.New().String()
}

// Stats is a point-in-time snapshot of byte/message counters, shared by
// Endpoint and Connection for reporting to embedders.
type Stats struct {
	CreatedAt    time.Time
	BytesRead    int64
	BytesWritten int64
	Messages     int64
}
