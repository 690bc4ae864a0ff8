package realtime

import (
	"encoding/json"

	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

// Envelope is the wire format for inbound frames.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the outbound counterpart.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EvJoinChannel     = "join-channel"
	EvLeaveChannel    = "leave-channel"
	EvViewChannel     = "view-channel"
	EvViewDM          = "view-dm"
	EvSendMessage     = "send-message"
	EvSendDM          = "send-dm"
	EvMarkChannelRead = "mark-channel-read"
	EvMarkDMRead      = "mark-dm-read"
	EvGetUnreadCounts = "get-unread-counts"
	EvTypingStart     = "typing-start"
	EvTypingStop      = "typing-stop"
)

// Outbound event types.
const (
	EvChannelJoined     = "channel-joined"
	EvChannelHistory    = "channel-history"
	EvReceiveMessage    = "receive-message"
	EvReceiveDM         = "receive-dm"
	EvNotification      = "notification"
	EvDMNotification    = "dm-notification"
	EvUnreadUpdated     = "unread-updated"
	EvAllUnreadCounts   = "all-unread-counts"
	EvUserTyping        = "user-typing"
	EvUserStoppedTyping = "user-stopped-typing"
	EvUserStatusChanged = "user-status-changed"
	EvError             = "error"
)

type JoinChannelPayload struct {
	ChannelID string `json:"channelId"`
}

type ViewChannelPayload struct {
	ChannelID string `json:"channelId"`
}

type ViewDMPayload struct {
	PeerID string `json:"peerId"`
}

type SendMessagePayload struct {
	ChannelID string `json:"channelId"`
	TeamID    string `json:"teamId"`
	Text      string `json:"text,omitempty"`
	ImageRef  string `json:"imageRef,omitempty"`
}

type SendDMPayload struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text,omitempty"`
	ImageRef   string `json:"imageRef,omitempty"`
}

type MarkChannelReadPayload struct {
	ChannelID string `json:"channelId"`
}

type MarkDMReadPayload struct {
	PeerID string `json:"peerId"`
}

type TypingPayload struct {
	ChannelID    string `json:"channelId,omitempty"`
	TargetUserID string `json:"targetUserId,omitempty"`
}

type ChannelJoinedPayload struct {
	ChannelID string `json:"channelId"`
	Message   string `json:"message"`
}

type ChannelHistoryPayload struct {
	ChannelID string                  `json:"channelId"`
	Messages  []models.ChannelMessage `json:"messages"`
}

type ReceiveMessagePayload struct {
	models.ChannelMessage
	AuthorUsername string `json:"authorUsername"`
	AuthorAvatar   string `json:"authorAvatar,omitempty"`
}

type ReceiveDMPayload struct {
	models.DirectMessage
	SenderUsername string `json:"senderUsername"`
}

type NotificationPayload struct {
	models.Notification
	Priority    string `json:"priority"` // high | normal
	UnreadCount int64  `json:"unreadCount"`
}

type UnreadUpdatedPayload struct {
	Type  string `json:"type"` // channel | dm
	ID    string `json:"id"`
	Count int64  `json:"count"`
}

type ChannelUnreadEntry struct {
	ChannelID string `json:"channelId"`
	Count     int64  `json:"count"`
}

type DMUnreadEntry struct {
	UserID string `json:"userId"`
	Count  int64  `json:"count"`
}

type AllUnreadCountsPayload struct {
	Channels []ChannelUnreadEntry `json:"channels"`
	DMs      []DMUnreadEntry      `json:"dms"`
}

type UserStatusPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

type TypingEventPayload struct {
	ChannelID string `json:"channelId,omitempty"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
}

type ErrorPayload struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}
