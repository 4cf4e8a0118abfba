package http

import (
	"sync"

	"github.com/soundwave-fm/realtime-server/internal/proto"
	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

// sendBuffer is the per-connection outbound queue depth. A consumer that
// falls this far behind starts losing events rather than stalling fan-out.
const sendBuffer = 64

// wsConn queues outbound events for one websocket. Send never blocks: the
// write loop drains the queue, and a closed queue reports ErrConnClosed so
// fan-out reaps the connection.
type wsConn struct {
	out chan proto.Outbound

	mu     sync.Mutex
	closed bool
}

func newWSConn() *wsConn {
	return &wsConn{out: make(chan proto.Outbound, sendBuffer)}
}

// Send implements realtime.Sender.
func (c *wsConn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return realtime.ErrConnClosed
	}
	select {
	case c.out <- proto.Outbound{Event: event, Data: payload}:
	default:
		// Slow consumer; drop rather than block the room fan-out.
	}
	return nil
}

func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}
