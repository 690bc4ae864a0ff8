package models

import "time"

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

const (
	NotificationTypeMessage = "message"
	NotificationTypeMention = "mention"
	NotificationTypeDM      = "dm"
)

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

type User struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	Username string `bson:"username" json:"username"`
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Status   string `bson:"status" json:"status"`
}

type TeamMember struct {
	TeamID   string    `bson:"team_id" json:"team_id"`
	UserID   string    `bson:"user_id" json:"user_id"`
	Role     string    `bson:"role" json:"role"` // owner | admin | member
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

type Channel struct {
	ID     string `bson:"_id,omitempty" json:"id"`
	TeamID string `bson:"team_id" json:"team_id"`
	Name   string `bson:"name" json:"name"`
}

type ChannelMessage struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ChannelID string    `bson:"channel_id" json:"channel_id"`
	TeamID    string    `bson:"team_id" json:"team_id"`
	AuthorID  string    `bson:"author_id" json:"author_id"`
	Text      string    `bson:"text,omitempty" json:"text,omitempty"`
	ImageRef  string    `bson:"image_ref,omitempty" json:"image_ref,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type DirectMessage struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	ReceiverID string    `bson:"receiver_id" json:"receiver_id"`
	Text       string    `bson:"text,omitempty" json:"text,omitempty"`
	ImageRef   string    `bson:"image_ref,omitempty" json:"image_ref,omitempty"`
	Read       bool      `bson:"read" json:"read"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ChannelReadWatermark marks everything up to LastReadAt as read for a
// (user, channel) pair. One record per pair, upsert semantics.
type ChannelReadWatermark struct {
	UserID     string    `bson:"user_id" json:"user_id"`
	ChannelID  string    `bson:"channel_id" json:"channel_id"`
	LastReadAt time.Time `bson:"last_read_at" json:"last_read_at"`
}

// DMReadWatermark is directional: the viewer's watermark for the
// conversation with OtherUserID, independent of the reverse direction.
type DMReadWatermark struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	OtherUserID string    `bson:"other_user_id" json:"other_user_id"`
	LastReadAt  time.Time `bson:"last_read_at" json:"last_read_at"`
}

type Notification struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Type         string    `bson:"type" json:"type"` // message | mention | dm
	Title        string    `bson:"title" json:"title"`
	Body         string    `bson:"body" json:"body"`
	ChannelID    string    `bson:"channel_id,omitempty" json:"channel_id,omitempty"`
	ChannelName  string    `bson:"channel_name,omitempty" json:"channel_name,omitempty"`
	FromUserID   string    `bson:"from_user_id" json:"from_user_id"`
	FromUsername string    `bson:"from_username" json:"from_username"`
	Read         bool      `bson:"read" json:"read"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
