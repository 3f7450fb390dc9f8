package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cwrk-planet/chat-service/internal/fanout"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsConn — fanout.Handle одного websocket-соединения.
// Deliver не блокируется: кадры уходят в буфер, пишет их только writeLoop.
type wsConn struct {
	id   string
	conn *websocket.Conn

	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

var _ fanout.FrameHandle = (*wsConn)(nil)

func newWsConn(buffer int) *wsConn {
	return &wsConn{
		id:     uuid.NewString(),
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Deliver(env fanout.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.DeliverFrame(data)
}

// DeliverFrame ставит готовые байты в очередь; data не изменяется и может
// быть общей для всех участников группы.
func (c *wsConn) DeliverFrame(data []byte) error {
	select {
	case <-c.closed:
		return fanout.ErrHandleClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return fanout.ErrHandleClosed
	default:
		// клиент не успевает читать: лучше закрыть его, чем терять порядок
		c.close()
		return fanout.ErrSlowConsumer
	}
}

// close идемпотентен; сам сокет закрывает writeLoop.
func (c *wsConn) close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *wsConn) String() string { return c.id }
