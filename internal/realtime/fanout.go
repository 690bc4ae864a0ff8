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

// Fanout orchestrates a channel message: validate, persist, resolve
// mentions, then deliver to the whole team audience with per-member
// notification decisions. Persistence is the durability point; everything
// after it is best-effort and logged.
type Fanout struct {
	dir    Directory
	msgs   MessageStore
	notifs NotificationStore
	unread *Unread
	hub    *hub.Hub
	feed   EventFeed
	logger *zap.SugaredLogger

	now func() time.Time
}

func NewFanout(dir Directory, msgs MessageStore, notifs NotificationStore, unread *Unread, h *hub.Hub, feed EventFeed, logger *zap.SugaredLogger) *Fanout {
	return &Fanout{
		dir:    dir,
		msgs:   msgs,
		notifs: notifs,
		unread: unread,
		hub:    h,
		feed:   feed,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (f *Fanout) Send(ctx context.Context, sender *models.User, in SendMessagePayload) (*models.ChannelMessage, error) {
	member, err := f.dir.IsTeamMember(ctx, in.TeamID, sender.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperr.ErrNotAuthorized
	}
	if strings.TrimSpace(in.Text) == "" && in.ImageRef == "" {
		return nil, apperr.ErrEmptyMessage
	}
	channel, err := f.dir.GetChannel(ctx, in.ChannelID)
	if err != nil {
		return nil, err
	}
	if channel.TeamID != in.TeamID {
		return nil, apperr.ErrNotAuthorized
	}

	msg := &models.ChannelMessage{
		ChannelID: channel.ID,
		TeamID:    channel.TeamID,
		AuthorID:  sender.ID,
		Text:      in.Text,
		ImageRef:  in.ImageRef,
		CreatedAt: f.now(),
	}
	if err := f.msgs.InsertChannelMessage(ctx, msg); err != nil {
		return nil, err
	}
	// message is durably stored from here on; downstream failures only log
	if f.feed != nil {
		if err := f.feed.Publish(ctx, Event{Type: EvReceiveMessage, Payload: msg}); err != nil {
			f.logger.Warnw("event feed publish", "message_id", msg.ID, "err", err)
		}
	}

	members, err := f.dir.ListTeamMembers(ctx, channel.TeamID)
	if err != nil {
		f.logger.Errorw("audience enumeration after persist", "message_id", msg.ID, "err", err)
		return msg, nil
	}
	mentioned := ResolveMentions(DetectMentions(msg.Text), members)

	payload := ReceiveMessagePayload{
		ChannelMessage: *msg,
		AuthorUsername: sender.Username,
		AuthorAvatar:   sender.Avatar,
	}
	for _, m := range members {
		if f.hub.SendToUser(m.ID, Event{Type: EvReceiveMessage, Payload: payload}) {
			metrics.MessagesDelivered.Inc()
		} else if f.hub.Online(m.ID) {
			// connected but the outbound buffer refused the payload; the
			// message is stored and shows up on the next fetch
			f.logger.Warnw("channel message push", "user_id", m.ID, "message_id", msg.ID, "err", apperr.ErrDeliveryFailed)
		}
		if m.ID == sender.ID {
			continue
		}
		if f.hub.IsViewingChannel(m.ID, channel.ID) {
			continue
		}
		f.notify(ctx, m, sender, channel, msg, mentioned[m.ID])
	}
	return msg, nil
}

func (f *Fanout) notify(ctx context.Context, recipient models.User, sender *models.User, channel *models.Channel, msg *models.ChannelMessage, isMention bool) {
	count, err := f.unread.ChannelUnread(ctx, recipient.ID, channel.ID)
	if err != nil {
		f.logger.Warnw("channel unread count", "user_id", recipient.ID, "channel_id", channel.ID, "err", err)
	}

	ntype := models.NotificationTypeMessage
	priority := models.PriorityNormal
	title := fmt.Sprintf("New message in #%s", channel.Name)
	if isMention {
		ntype = models.NotificationTypeMention
		priority = models.PriorityHigh
		title = fmt.Sprintf("%s mentioned you in #%s", sender.Username, channel.Name)
	}

	n := &models.Notification{
		UserID:       recipient.ID,
		Type:         ntype,
		Title:        title,
		Body:         bodyText(msg.Text, msg.ImageRef),
		ChannelID:    channel.ID,
		ChannelName:  channel.Name,
		FromUserID:   sender.ID,
		FromUsername: sender.Username,
		CreatedAt:    msg.CreatedAt,
	}
	if err := f.notifs.Insert(ctx, n); err != nil {
		f.logger.Errorw("notification persist", "user_id", recipient.ID, "message_id", msg.ID, "err", err)
		return
	}
	metrics.NotificationsCreated.Inc()
	f.hub.SendToUser(recipient.ID, Event{Type: EvNotification, Payload: NotificationPayload{
		Notification: *n,
		Priority:     priority,
		UnreadCount:  count,
	}})
}

func bodyText(text, imageRef string) string {
	if text != "" {
		return text
	}
	if imageRef != "" {
		return "Sent an image"
	}
	return ""
}
