package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	errSessionClosed = errors.New("session closed")
	errSlowConsumer  = errors.New("send buffer full")
)

type outbound struct {
	msg  []byte
	live bool
}

// Session wraps one websocket connection. Messages are queued in arrival order
// and written by a single writer goroutine. Only live updates count against
// the send buffer; the connect snapshot is queued whatever the fleet size.
type Session struct {
	id   string
	conn *websocket.Conn
	opts Options

	mu      sync.Mutex
	closed  bool
	queue   []outbound
	pending int // live messages in queue
	wake    chan struct{}
	done    chan struct{}
}

func newSession(conn *websocket.Conn, opts Options) *Session {
	return &Session{
		id:   uuid.NewString(),
		conn: conn,
		opts: opts,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Send queues a live update without blocking. A full send buffer means the
// viewer is not keeping up and the session is reported as failed.
func (s *Session) Send(msg []byte) error {
	return s.enqueue(outbound{msg: msg, live: true})
}

// SendSnapshot queues one snapshot message without blocking.
func (s *Session) SendSnapshot(msg []byte) error {
	return s.enqueue(outbound{msg: msg})
}

func (s *Session) enqueue(o outbound) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSessionClosed
	}
	if o.live {
		if s.pending >= s.opts.SendBuffer {
			s.mu.Unlock()
			return errSlowConsumer
		}
		s.pending++
	}
	s.queue = append(s.queue, o)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Session) next() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	o := s.queue[0]
	s.queue[0] = outbound{}
	s.queue = s.queue[1:]
	if o.live {
		s.pending--
	}
	return o.msg, true
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	s.pending = 0
	close(s.done)
}

// writeLoop drains the queue until the session is closed or a write fails.
// Every frame is bounded by the write timeout.
func (s *Session) writeLoop() error {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.wake:
			for {
				msg, ok := s.next()
				if !ok {
					break
				}
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return err
				}
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed"),
				time.Now().Add(s.opts.WriteTimeout))
			return nil
		}
	}
}

// readLoop discards viewer frames and returns once the peer goes away.
func (s *Session) readLoop() error {
	s.conn.SetReadLimit(1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.pongWait()))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.pongWait()))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return err
		}
	}
}
