// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"testing"
	"time"

	"barviz/internal/viz"

	"github.com/gorilla/websocket"
)

func testPlacements() []viz.BarPlacement {
	return []viz.BarPlacement{
		{X: -15, Y: -180, Width: 10, Height: 7.2},
		{X: 0, Y: -180, Width: 10, Height: 7.2},
		{X: 15, Y: -180, Width: 10, Height: 7.2},
	}
}

// dialTestServer starts a broadcaster on an ephemeral port and connects one
// client to it.
func dialTestServer(t *testing.T, placements []viz.BarPlacement) (*WebSocketTransport, *websocket.Conn) {
	t.Helper()

	wst, err := NewWebSocketTransport("127.0.0.1:0", placements)
	if err != nil {
		t.Fatalf("NewWebSocketTransport error: %v", err)
	}
	t.Cleanup(func() { wst.Close() })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to dial WebSocket server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return wst, conn
}

// readMessage decodes the next JSON message within the deadline.
func readMessage(t *testing.T, conn *websocket.Conn, dest any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("Failed to decode message %q: %v", data, err)
	}
}

func TestWebSocketLayoutSentOnConnect(t *testing.T) {
	placements := testPlacements()
	_, conn := dialTestServer(t, placements)

	var msg layoutMessage
	readMessage(t, conn, &msg)

	if msg.Type != "layout" {
		t.Fatalf("First message type: got %q, want \"layout\"", msg.Type)
	}
	if len(msg.Placements) != len(placements) {
		t.Fatalf("Placement count: got %d, want %d", len(msg.Placements), len(placements))
	}
	for i, p := range msg.Placements {
		if p.X != placements[i].X || p.Y != placements[i].Y {
			t.Errorf("Placement %d: got (%g, %g), want (%g, %g)",
				i, p.X, p.Y, placements[i].X, placements[i].Y)
		}
	}
}

func TestWebSocketBroadcastsFrames(t *testing.T) {
	wst, conn := dialTestServer(t, testPlacements())

	// Consume the layout greeting first.
	var layout layoutMessage
	readMessage(t, conn, &layout)

	frame := viz.Frame{Sequence: 7, Timestamp: 1700000000000000000, Heights: []float64{1, 2, 3}}

	// The client registers after the layout write returns; retry until the
	// broadcast loop sees it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			wst.Send(frame)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	var msg frameMessage
	readMessage(t, conn, &msg)
	<-done

	if msg.Type != "frame" {
		t.Fatalf("Message type: got %q, want \"frame\"", msg.Type)
	}
	if msg.Frame.Sequence != frame.Sequence {
		t.Errorf("Sequence: got %d, want %d", msg.Frame.Sequence, frame.Sequence)
	}
	if len(msg.Frame.Heights) != len(frame.Heights) {
		t.Fatalf("Height count: got %d, want %d", len(msg.Frame.Heights), len(frame.Heights))
	}
	for i, h := range msg.Frame.Heights {
		if h != frame.Heights[i] {
			t.Errorf("Height %d: got %g, want %g", i, h, frame.Heights[i])
		}
	}
}

func TestWebSocketNilPlacementsSkipsLayout(t *testing.T) {
	wst, conn := dialTestServer(t, nil)

	frame := viz.Frame{Sequence: 1, Heights: []float64{5}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			wst.Send(frame)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	// With no placements configured the first message is already a frame.
	var msg frameMessage
	readMessage(t, conn, &msg)
	<-done

	if msg.Type != "frame" {
		t.Errorf("First message type: got %q, want \"frame\"", msg.Type)
	}
}

func TestWebSocketClientMessageKeepsConnection(t *testing.T) {
	wst, conn := dialTestServer(t, nil)

	// Inbound traffic must not deregister the client; only a read error
	// (disconnect) does.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("WriteMessage error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	frame := viz.Frame{Sequence: 3, Heights: []float64{9}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			wst.Send(frame)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	var msg frameMessage
	readMessage(t, conn, &msg)
	<-done

	if msg.Type != "frame" || msg.Frame.Sequence != frame.Sequence {
		t.Errorf("Broadcast after client message: got type %q seq %d, want \"frame\" seq %d",
			msg.Type, msg.Frame.Sequence, frame.Sequence)
	}
}

func TestWebSocketSendAfterClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("NewWebSocketTransport error: %v", err)
	}

	if err := wst.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if err := wst.Send(viz.Frame{Sequence: 1}); err != nil {
		t.Errorf("Send after Close should be a silent no-op, got %v", err)
	}
}
