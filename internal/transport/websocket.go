// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	applog "barviz/internal/log"
	"barviz/internal/viz"

	"github.com/gorilla/websocket"
)

// layoutMessage is sent once to each new client so it can place the bars
// before frames arrive.
type layoutMessage struct {
	Type       string             `json:"type"`
	Placements []viz.BarPlacement `json:"placements"`
}

// frameMessage wraps an animation frame for JSON clients.
type frameMessage struct {
	Type  string    `json:"type"`
	Frame viz.Frame `json:"frame"`
}

// WebSocketTransport broadcasts animation frames as JSON to all connected
// WebSocket clients. New clients receive the bar layout on connect.
type WebSocketTransport struct {
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]bool
	clientsMu  sync.Mutex
	broadcast  chan any
	listener   net.Listener
	server     *http.Server
	placements []viz.BarPlacement

	stateMu   sync.RWMutex // Guards closed against concurrent Send/Close.
	closed    bool
	closeOnce sync.Once
}

// NewWebSocketTransport binds addr and starts the WebSocket server.
// placements describes the bar geometry sent to each client on connect; nil
// is allowed when clients place bars themselves.
func NewWebSocketTransport(addr string, placements []viz.BarPlacement) (*WebSocketTransport, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind WebSocket listener on '%s': %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Visualizer clients connect from arbitrary origins.
			},
		},
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan any, 256),
		listener:   listener,
		placements: placements,
	}

	wst.start()
	return wst, nil
}

// Addr returns the bound listen address, useful when addr requested an
// ephemeral port.
func (wst *WebSocketTransport) Addr() string {
	return wst.listener.Addr().String()
}

// start begins the WebSocket server and the broadcast loop.
func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocketTransport: Starting WebSocket server on %s", wst.Addr())
		if err := wst.server.Serve(wst.listener); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	go wst.handleBroadcasts()
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	// New clients get the bar geometry before any frames.
	if wst.placements != nil {
		if err := conn.WriteJSON(layoutMessage{Type: "layout", Placements: wst.placements}); err != nil {
			applog.Errorf("WebSocketTransport: Error sending layout: %v", err)
			conn.Close()
			return
		}
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Drain inbound messages until the connection errors, then deregister.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		delete(wst.clients, conn)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}()
}

// handleBroadcasts sends queued messages to all connected clients. It exits
// when the broadcast channel is closed.
func (wst *WebSocketTransport) handleBroadcasts() {
	for data := range wst.broadcast {
		msg := data
		if frame, ok := data.(viz.Frame); ok {
			msg = frameMessage{Type: "frame", Frame: frame}
		}

		wst.clientsMu.Lock()
		for client := range wst.clients {
			if err := client.WriteJSON(msg); err != nil {
				applog.Errorf("WebSocketTransport: Error sending to client: %v", err)
				client.Close()
				delete(wst.clients, client)
			}
		}
		wst.clientsMu.Unlock()
	}
}

// Send queues data for broadcast to all connected clients. When the queue is
// full the frame is dropped; clients always prefer a fresh frame over a
// stale backlog. Send after Close is a no-op.
func (wst *WebSocketTransport) Send(data any) error {
	wst.stateMu.RLock()
	defer wst.stateMu.RUnlock()

	if wst.closed {
		return nil
	}
	select {
	case wst.broadcast <- data:
	default:
		// Channel full, drop message.
	}
	return nil
}

// Close shuts down the WebSocket server, the broadcast loop, and all client
// connections.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Infof("WebSocketTransport: Closing server")

		wst.stateMu.Lock()
		wst.closed = true
		close(wst.broadcast)
		wst.stateMu.Unlock()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
