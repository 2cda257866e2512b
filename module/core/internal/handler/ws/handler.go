package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/broadcast"
)

const (
	defaultSendBuffer   = 64
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
)

type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	return o
}

func (o Options) pongWait() time.Duration {
	return o.PingInterval + o.WriteTimeout
}

type sessionRegistry interface {
	Register(s broadcast.Session)
	Unregister(s broadcast.Session)
}

var _ broadcast.Session = (*Session)(nil)

type LiveHandler struct {
	hub      sessionRegistry
	upgrader websocket.Upgrader
	opts     Options
	log      zerolog.Logger
}

func NewLiveHandler(hub sessionRegistry, opts Options, log zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard is served from other origins during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		opts: opts.withDefaults(),
		log:  log.With().Str("component", "live").Logger(),
	}
}

func (h *LiveHandler) Register(r gin.IRoutes) {
	r.GET("/ws", h.Serve)
}

// Serve upgrades the request and blocks until the viewer disconnects.
func (h *LiveHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := newSession(conn, h.opts)
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- s.writeLoop()
	}()

	h.hub.Register(s)
	err = s.readLoop()
	h.hub.Unregister(s)
	s.Close()

	if werr := <-writeErr; werr != nil {
		h.log.Debug().Err(werr).Str("session", s.ID()).Msg("live writer stopped")
	}
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.log.Debug().Err(err).Str("session", s.ID()).Msg("live reader stopped")
	}
}
