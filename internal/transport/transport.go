// SPDX-License-Identifier: MIT
/*
Package transport publishes animation frames to external consumers. Each
transport implements the same push interface, so the frame loop fans out to
any mix of UDP, WebSocket, and logging sinks without caring which are active.
*/
package transport

// Transport defines a generic interface for publishing frames or events.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}
