// File: negotiate/negotiate.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package negotiate picks the protocol a freshly admitted connection
// speaks before a Connection is constructed for it (spec §6's
// ConnectionFactory ctx argument is commonly the result of this
// package). Grounded on protocol/upgrader.go and protocol/handshake.go's
// header-token validation from the teacher, generalized from a
// WebSocket-only check into ALPN/Upgrade/WebSocket detection backed by
// golang.org/x/net's http2 and httpguts helpers plus gorilla/websocket.
package negotiate

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/http2"
)

// Protocol identifies the application protocol negotiated for a
// connection.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolHTTP11
	ProtocolHTTP2
	ProtocolWebSocket
)

func (p Protocol) String() string {
	switch p {
	case ProtocolHTTP11:
		return "http/1.1"
	case ProtocolHTTP2:
		return "h2"
	case ProtocolWebSocket:
		return "websocket"
	default:
		return "unknown"
	}
}

// ALPN picks a protocol from a TLS ClientHello's offered list, the
// ordering and preference rule used by x/net/http2's own ALPN
// negotiation (NextProtoTLS is the hard-coded "h2" token it matches).
func ALPN(offered []string) Protocol {
	for _, p := range offered {
		switch p {
		case http2.NextProtoTLS:
			return ProtocolHTTP2
		case "http/1.1":
			return ProtocolHTTP11
		}
	}
	return ProtocolUnknown
}

// FromRequest inspects a plaintext HTTP request's headers to decide
// whether it is a WebSocket upgrade, an h2c-style Upgrade: h2c request,
// or plain HTTP/1.1, without consuming the request body.
func FromRequest(r *http.Request) Protocol {
	if websocket.IsWebSocketUpgrade(r) {
		return ProtocolWebSocket
	}
	if httpguts.HeaderValuesContainsToken(r.Header["Upgrade"], "h2c") {
		return ProtocolHTTP2
	}
	return ProtocolHTTP11
}
