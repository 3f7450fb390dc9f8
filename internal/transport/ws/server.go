package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/fanout"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// BroadcastStore: запись общего сообщения до рассылки.
type BroadcastStore interface {
	GetUser(ctx context.Context, username string) (*domain.User, error)
	CreateCommonMessage(ctx context.Context, m *domain.CommonMessage) error
}

type Options struct {
	PingInterval   time.Duration // 30s
	WriteTimeout   time.Duration // 10s
	SendBuffer     int           // 64
	ReadLimit      int64         // 64 KiB
	AllowedOrigins []string      // пусто: любой Origin
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
	return o
}

type Server struct {
	upgrader websocket.Upgrader
	hub      fanout.Registry
	store    BroadcastStore
	opts     Options
}

func NewServer(hub fanout.Registry, st BroadcastStore, opts Options) *Server {
	opts = opts.withDefaults()
	s := &Server{hub: hub, store: st, opts: opts}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(opts.AllowedOrigins) == 0 {
				return true
			}
			return slices.Contains(opts.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return s
}

// receiveFunc обрабатывает один входящий кадр.
type receiveFunc func(ctx context.Context, group string, data []byte) error

// HandleChat: GET /ws/chat/{chat_id}/
func (s *Server) HandleChat(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, fanout.ForChat(chi.URLParam(r, "chat_id")), s.relayDirect)
}

// HandleGroup: GET /ws/group/{group_id}/
func (s *Server) HandleGroup(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, fanout.ForGroup(chi.URLParam(r, "group_id")), s.relayGroup)
}

// HandleBroadcast: GET /ws/broadcast/
func (s *Server) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, fanout.BroadcastGroup, s.persistBroadcast)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, group string, recv receiveFunc) {
	c := newWsConn(s.opts.SendBuffer)

	// в группу входим до принятия соединения; выходим ровно один раз
	s.hub.Join(group, c)
	defer s.hub.Leave(group, c)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// ответ с ошибкой уже записан Upgrade
		slog.WarnContext(r.Context(), "ws upgrade failed", "group", group, "err", err)
		c.close()
		return
	}
	c.conn = conn

	slog.Debug("ws joined", "group", group, "conn", c.id, "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(c)
	}()

	s.readLoop(r.Context(), c, group, recv)

	c.close()
	<-done
	slog.Debug("ws closed", "group", group, "conn", c.id)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, group string, recv receiveFunc) {
	c.conn.SetReadLimit(s.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.DebugContext(ctx, "ws read failed", "group", group, "conn", c.id, "err", err)
			}
			return
		}

		err = recv(ctx, group, data)
		var frameErr *FrameError
		switch {
		case err == nil:
		case errors.Is(err, ErrMalformedFrame), errors.As(err, &frameErr):
			slog.WarnContext(ctx, "ws frame rejected", "group", group, "conn", c.id, "err", err)
		default:
			slog.ErrorContext(ctx, "ws receive failed", "group", group, "conn", c.id, "err", err)
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("ws write failed", "conn", c.id, "err", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteTimeout)); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// relayDirect рассылает кадр личного чата без записи; timestamp нет.
func (s *Server) relayDirect(_ context.Context, group string, data []byte) error {
	f, err := decodeFrame[DirectFrame](data)
	if err != nil {
		return err
	}
	s.hub.SendToGroup(group, fanout.DirectEnvelope(*f.Sender, *f.Content, f.FileAttachment, f.ReplyTo, ""))
	return nil
}

// relayGroup рассылает кадр группы без записи; вложений в кадре нет.
func (s *Server) relayGroup(_ context.Context, group string, data []byte) error {
	f, err := decodeFrame[GroupFrame](data)
	if err != nil {
		return err
	}
	s.hub.SendToGroup(group, fanout.GroupEnvelope(*f.Sender, *f.Content, nil, f.ReplyTo, ""))
	return nil
}

// persistBroadcast сначала записывает сообщение, потом рассылает его с
// временем записи. Без записи рассылки не бывает.
func (s *Server) persistBroadcast(ctx context.Context, group string, data []byte) error {
	f, err := decodeFrame[BroadcastFrame](data)
	if err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, *f.Sender)
	if err != nil {
		return fmt.Errorf("resolve sender %q: %w", *f.Sender, err)
	}
	m := &domain.CommonMessage{Sender: user.Username, Content: *f.Content}
	if err := s.store.CreateCommonMessage(ctx, m); err != nil {
		return fmt.Errorf("persist common message: %w", err)
	}

	s.hub.SendToGroup(group, fanout.BroadcastEnvelope(m.Sender, m.Content, fanout.FormatTimestamp(m.CreatedAt)))
	return nil
}
