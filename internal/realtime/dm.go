package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
	"github.com/yourorg/teamchat/realtime-service/internal/hub"
	"github.com/yourorg/teamchat/realtime-service/internal/metrics"
	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

// DMRouter is the two-party variant of Fanout. The sender always gets an
// echo so their own UI updates; the receiver gets a notification unless
// they are looking at this conversation. DMs are always high priority.
type DMRouter struct {
	dir    Directory
	dms    DMStore
	notifs NotificationStore
	unread *Unread
	hub    *hub.Hub
	feed   EventFeed
	logger *zap.SugaredLogger

	now func() time.Time
}

func NewDMRouter(dir Directory, dms DMStore, notifs NotificationStore, unread *Unread, h *hub.Hub, feed EventFeed, logger *zap.SugaredLogger) *DMRouter {
	return &DMRouter{
		dir:    dir,
		dms:    dms,
		notifs: notifs,
		unread: unread,
		hub:    h,
		feed:   feed,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *DMRouter) Send(ctx context.Context, sender *models.User, in SendDMPayload) (*models.DirectMessage, error) {
	if in.ReceiverID == "" || in.ReceiverID == sender.ID {
		return nil, apperr.ErrInvalidInput
	}
	if strings.TrimSpace(in.Text) == "" && in.ImageRef == "" {
		return nil, apperr.ErrEmptyMessage
	}
	receiver, err := r.dir.GetUser(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	dm := &models.DirectMessage{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Text:       in.Text,
		ImageRef:   in.ImageRef,
		Read:       false,
		CreatedAt:  r.now(),
	}
	if err := r.dms.InsertDirectMessage(ctx, dm); err != nil {
		return nil, err
	}
	if r.feed != nil {
		if err := r.feed.Publish(ctx, Event{Type: EvReceiveDM, Payload: dm}); err != nil {
			r.logger.Warnw("event feed publish", "dm_id", dm.ID, "err", err)
		}
	}

	payload := ReceiveDMPayload{DirectMessage: *dm, SenderUsername: sender.Username}
	// echo back so the sender's UI updates without a separate read
	r.hub.SendToUser(sender.ID, Event{Type: EvReceiveDM, Payload: payload})
	if r.hub.SendToUser(receiver.ID, Event{Type: EvReceiveDM, Payload: payload}) {
		metrics.MessagesDelivered.Inc()
	} else if r.hub.Online(receiver.ID) {
		r.logger.Warnw("dm push", "user_id", receiver.ID, "dm_id", dm.ID, "err", apperr.ErrDeliveryFailed)
	}

	if !r.hub.IsViewingDM(receiver.ID, sender.ID) {
		r.notify(ctx, receiver, sender, dm)
	}
	return dm, nil
}

func (r *DMRouter) notify(ctx context.Context, receiver *models.User, sender *models.User, dm *models.DirectMessage) {
	count, err := r.unread.DMUnread(ctx, receiver.ID, sender.ID)
	if err != nil {
		r.logger.Warnw("dm unread count", "user_id", receiver.ID, "peer_id", sender.ID, "err", err)
	}
	n := &models.Notification{
		UserID:       receiver.ID,
		Type:         models.NotificationTypeDM,
		Title:        fmt.Sprintf("New message from %s", sender.Username),
		Body:         bodyText(dm.Text, dm.ImageRef),
		FromUserID:   sender.ID,
		FromUsername: sender.Username,
		CreatedAt:    dm.CreatedAt,
	}
	if err := r.notifs.Insert(ctx, n); err != nil {
		r.logger.Errorw("dm notification persist", "user_id", receiver.ID, "dm_id", dm.ID, "err", err)
		return
	}
	metrics.NotificationsCreated.Inc()
	r.hub.SendToUser(receiver.ID, Event{Type: EvDMNotification, Payload: NotificationPayload{
		Notification: *n,
		Priority:     models.PriorityHigh,
		UnreadCount:  count,
	}})
}
