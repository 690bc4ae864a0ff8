package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
	"github.com/yourorg/teamchat/realtime-service/internal/auth"
	"github.com/yourorg/teamchat/realtime-service/internal/hub"
	"github.com/yourorg/teamchat/realtime-service/internal/metrics"
	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

type GatewayConfig struct {
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
	EventsPerSecond int
	HistoryLimit    int64
}

// Gateway authenticates incoming websocket connections and runs one session
// per connection for its lifetime.
type Gateway struct {
	verifier *auth.Verifier
	dir      Directory
	hub      *hub.Hub
	fanout   *Fanout
	dms      *DMRouter
	typing   *TypingRelay
	unread   *Unread
	msgs     MessageStore
	logger   *zap.SugaredLogger
	cfg      GatewayConfig
}

func NewGateway(verifier *auth.Verifier, dir Directory, h *hub.Hub, fanout *Fanout, dms *DMRouter, typing *TypingRelay, unread *Unread, msgs MessageStore, logger *zap.SugaredLogger, cfg GatewayConfig) *Gateway {
	return &Gateway{
		verifier: verifier,
		dir:      dir,
		hub:      h,
		fanout:   fanout,
		dms:      dms,
		typing:   typing,
		unread:   unread,
		msgs:     msgs,
		logger:   logger,
		cfg:      cfg,
	}
}

// Handle runs a websocket connection to completion. Auth happens before any
// registry entry is created, so a rejected connection leaves no state.
func (g *Gateway) Handle(conn *websocket.Conn) {
	ctx := context.Background()

	userID, err := g.verifier.Verify(conn.Query("token"))
	if err != nil {
		_ = conn.WriteJSON(Event{Type: EvError, Payload: ErrorPayload{Action: "connect", Message: err.Error()}})
		_ = conn.Close()
		return
	}
	user, err := g.dir.GetUser(ctx, userID)
	if err != nil {
		_ = conn.WriteJSON(Event{Type: EvError, Payload: ErrorPayload{Action: "connect", Message: apperr.ErrUnknownUser.Error()}})
		_ = conn.Close()
		return
	}

	client := NewClient(conn, user.ID, user.Username)
	g.hub.Register(ctx, client)
	// status persistence is best-effort: the user is online regardless
	if err := g.dir.SetUserStatus(ctx, user.ID, models.StatusOnline); err != nil {
		g.logger.Warnw("persist online status", "user_id", user.ID, "err", err)
	}
	g.hub.BroadcastAll(ctx, Event{Type: EvUserStatusChanged, Payload: UserStatusPayload{
		UserID: user.ID, Username: user.Username, Status: models.StatusOnline,
	}})
	metrics.Connections.Inc()
	g.logger.Infow("connected", "user_id", user.ID, "username", user.Username)

	go client.WritePump(g.cfg.PingInterval, g.cfg.WriteDeadline)

	sess := &session{
		user:    user,
		client:  client,
		hub:     g.hub,
		fanout:  g.fanout,
		dms:     g.dms,
		typing:  g.typing,
		unread:  g.unread,
		msgs:    g.msgs,
		logger:  g.logger,
		history: g.cfg.HistoryLimit,
	}
	g.readLoop(conn, sess)

	// Unregister only wins if this connection still owns the slot; a
	// reconnect that took it over must not be flipped offline.
	if g.hub.Unregister(ctx, client) {
		if err := g.dir.SetUserStatus(ctx, user.ID, models.StatusOffline); err != nil {
			g.logger.Warnw("persist offline status", "user_id", user.ID, "err", err)
		}
		g.hub.BroadcastAll(ctx, Event{Type: EvUserStatusChanged, Payload: UserStatusPayload{
			UserID: user.ID, Username: user.Username, Status: models.StatusOffline,
		}})
	}
	metrics.Connections.Dec()
	client.Close()
	g.logger.Infow("disconnected", "user_id", user.ID)
}

func (g *Gateway) readLoop(conn *websocket.Conn, sess *session) {
	limiter := rate.NewLimiter(rate.Limit(g.cfg.EventsPerSecond), g.cfg.EventsPerSecond)
	conn.SetReadLimit(g.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !limiter.Allow() {
			g.logger.Warnw("rate limited", "user_id", sess.user.ID)
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		sess.handle(context.Background(), env)
	}
}

// sessionConn is the slice of Client the event handler needs; tests
// substitute an in-memory connection.
type sessionConn interface {
	Enqueue(v any) bool
	SetViewChannel(channelID string)
	SetViewDM(peerID string)
}

// session is the per-connection event handler. Inbound events are processed
// in arrival order for this connection; it owns the client's view state.
type session struct {
	user    *models.User
	client  sessionConn
	hub     *hub.Hub
	fanout  *Fanout
	dms     *DMRouter
	typing  *TypingRelay
	unread  *Unread
	msgs    MessageStore
	logger  *zap.SugaredLogger
	history int64
}

func (s *session) handle(ctx context.Context, env Envelope) {
	switch env.Type {
	case EvJoinChannel:
		var p JoinChannelPayload
		if !s.decode(env, &p) || p.ChannelID == "" {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		s.hub.JoinRoom(p.ChannelID, s.user.ID)
		s.client.Enqueue(Event{Type: EvChannelJoined, Payload: ChannelJoinedPayload{
			ChannelID: p.ChannelID, Message: "Successfully joined channel",
		}})
		if msgs, err := s.msgs.ListChannelMessages(ctx, p.ChannelID, s.history); err == nil {
			s.client.Enqueue(Event{Type: EvChannelHistory, Payload: ChannelHistoryPayload{ChannelID: p.ChannelID, Messages: msgs}})
		} else {
			s.logger.Warnw("channel history", "channel_id", p.ChannelID, "err", err)
		}

	case EvLeaveChannel:
		var p JoinChannelPayload
		if !s.decode(env, &p) || p.ChannelID == "" {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		s.hub.LeaveRoom(p.ChannelID, s.user.ID)

	case EvViewChannel:
		var p ViewChannelPayload
		if !s.decode(env, &p) {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		s.client.SetViewChannel(p.ChannelID)

	case EvViewDM:
		var p ViewDMPayload
		if !s.decode(env, &p) {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		s.client.SetViewDM(p.PeerID)

	case EvSendMessage:
		var p SendMessagePayload
		if !s.decode(env, &p) {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		if _, err := s.fanout.Send(ctx, s.user, p); err != nil {
			s.fail(env.Type, err)
		}

	case EvSendDM:
		var p SendDMPayload
		if !s.decode(env, &p) {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		if _, err := s.dms.Send(ctx, s.user, p); err != nil {
			s.fail(env.Type, err)
		}

	case EvMarkChannelRead:
		var p MarkChannelReadPayload
		if !s.decode(env, &p) || p.ChannelID == "" {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		if err := s.unread.MarkChannelRead(ctx, s.user.ID, p.ChannelID); err != nil {
			s.fail(env.Type, err)
			return
		}
		count, err := s.unread.ChannelUnread(ctx, s.user.ID, p.ChannelID)
		if err != nil {
			s.fail(env.Type, err)
			return
		}
		s.client.Enqueue(Event{Type: EvUnreadUpdated, Payload: UnreadUpdatedPayload{Type: "channel", ID: p.ChannelID, Count: count}})

	case EvMarkDMRead:
		var p MarkDMReadPayload
		if !s.decode(env, &p) || p.PeerID == "" {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		if err := s.unread.MarkDMRead(ctx, s.user.ID, p.PeerID); err != nil {
			s.fail(env.Type, err)
			return
		}
		count, err := s.unread.DMUnread(ctx, s.user.ID, p.PeerID)
		if err != nil {
			s.fail(env.Type, err)
			return
		}
		s.client.Enqueue(Event{Type: EvUnreadUpdated, Payload: UnreadUpdatedPayload{Type: "dm", ID: p.PeerID, Count: count}})

	case EvGetUnreadCounts:
		counts, err := s.unread.AllCounts(ctx, s.user.ID)
		if err != nil {
			s.fail(env.Type, err)
			return
		}
		s.client.Enqueue(Event{Type: EvAllUnreadCounts, Payload: counts})

	case EvTypingStart, EvTypingStop:
		var p TypingPayload
		if !s.decode(env, &p) {
			s.fail(env.Type, apperr.ErrInvalidInput)
			return
		}
		if err := s.typing.Relay(s.user, env.Type == EvTypingStart, p); err != nil {
			s.fail(env.Type, err)
		}

	default:
		// unknown event types are ignored
	}
}

func (s *session) decode(env Envelope, out any) bool {
	if len(env.Payload) == 0 {
		return false
	}
	return json.Unmarshal(env.Payload, out) == nil
}

// fail reports an action failure back to the originating connection. The
// sender always gets an explicit signal; internal detail stays in the logs.
func (s *session) fail(action string, err error) {
	msg := apperr.ErrInternal.Error()
	switch {
	case errors.Is(err, apperr.ErrNotAuthorized),
		errors.Is(err, apperr.ErrEmptyMessage),
		errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrUnknownUser):
		msg = err.Error()
	default:
		s.logger.Errorw("event failed", "action", action, "user_id", s.user.ID, "err", err)
	}
	s.client.Enqueue(Event{Type: EvError, Payload: ErrorPayload{Action: action, Message: msg}})
}
