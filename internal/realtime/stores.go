package realtime

import (
	"context"
	"time"

	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

// Narrow store contracts consumed by the realtime layer. The mongo
// repositories implement them; tests use in-memory fakes.

type MessageStore interface {
	InsertChannelMessage(ctx context.Context, m *models.ChannelMessage) error
	CountChannelUnread(ctx context.Context, userID, channelID string, after time.Time) (int64, error)
	ListChannelMessages(ctx context.Context, channelID string, limit int64) ([]models.ChannelMessage, error)
}

type DMStore interface {
	InsertDirectMessage(ctx context.Context, m *models.DirectMessage) error
	CountUnreadFrom(ctx context.Context, receiverID, senderID string, after time.Time) (int64, error)
	DistinctSenders(ctx context.Context, receiverID string) ([]string, error)
	MarkRead(ctx context.Context, receiverID, senderID string) error
}

type WatermarkStore interface {
	ChannelWatermark(ctx context.Context, userID, channelID string) (time.Time, error)
	SetChannelWatermark(ctx context.Context, userID, channelID string, t time.Time) error
	DMWatermark(ctx context.Context, userID, otherUserID string) (time.Time, error)
	SetDMWatermark(ctx context.Context, userID, otherUserID string, t time.Time) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
}

type Directory interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SetUserStatus(ctx context.Context, userID, status string) error
	IsTeamMember(ctx context.Context, teamID, userID string) (bool, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error)
	GetChannel(ctx context.Context, channelID string) (*models.Channel, error)
	ChannelsForUser(ctx context.Context, userID string) ([]models.Channel, error)
}

// EventFeed publishes persisted messages to the event stream (kafka).
type EventFeed interface {
	Publish(ctx context.Context, event any) error
}
