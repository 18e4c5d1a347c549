// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "barviz/internal/log"
	"barviz/internal/viz"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Bar Count         | uint16         | 2            | Number of floats (N)    |
| Bar Heights       | []float32      | N * 4        | Smoothed bar heights    |
+-----------------------------------------------------------------------------+

Visual Layout:

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Bar Count   |      Bar Heights        |
|      (uint32)     |        (int64)        |    (uint16)   |      (N * float32)      |
+-------------------+-----------------------+---------------+-------------------------+
*/

// FramePublisher packs animation frames into the binary packet format above
// and sends them over UDP. It receives frames pushed by the animation loop;
// a minimum send interval drops frames arriving faster than consumers want.
type FramePublisher struct {
	sender      *UDPSender
	minInterval time.Duration

	mu       sync.Mutex
	lastSend time.Time

	// Pre-allocated buffers to avoid per-frame allocations.
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewFramePublisher creates a FramePublisher over the given sender. If the
// provided interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewFramePublisher(minInterval time.Duration, sender *UDPSender) (*FramePublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("FramePublisher: UDP sender cannot be nil")
	}
	if minInterval <= 0 {
		minInterval = 16 * time.Millisecond
		applog.Warnf("FramePublisher: Invalid interval provided, defaulting to %s", minInterval)
	}

	applog.Infof("FramePublisher: Initializing (min interval: %s)", minInterval)

	return &FramePublisher{
		sender:       sender,
		minInterval:  minInterval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send packs and transmits one frame. Frames arriving within the minimum
// interval of the previous send are silently dropped; UDP consumers want the
// freshest frame, not a backlog.
func (p *FramePublisher) Send(data any) error {
	frame, ok := data.(viz.Frame)
	if !ok {
		return fmt.Errorf("FramePublisher: unsupported payload type %T", data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.lastSend) < p.minInterval {
		return nil
	}
	p.lastSend = now

	if cap(p.f32Buffer) < len(frame.Heights) {
		p.f32Buffer = make([]float32, len(frame.Heights))
	}
	p.f32Buffer = p.f32Buffer[:len(frame.Heights)]
	for i, v := range frame.Heights {
		p.f32Buffer[i] = float32(v)
	}

	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, frame.Sequence)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, frame.Timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.f32Buffer)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		applog.Errorf("FramePublisher: Error packing frame %d: %v", frame.Sequence, err)
		return err
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err != nil {
		return err
	}

	applog.Debugf("FramePublisher: Sent frame %d (%d bytes)", frame.Sequence, len(packetBytes))
	return nil
}

// Close closes the underlying UDP sender.
func (p *FramePublisher) Close() error {
	return p.sender.Close()
}

var _ interface{ Close() error } = (*FramePublisher)(nil)
