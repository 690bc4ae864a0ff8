package realtime

import (
	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
	"github.com/yourorg/teamchat/realtime-service/internal/hub"
	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

// TypingRelay broadcasts transient typing state. Nothing is persisted;
// typing follows room subscription, not team membership.
type TypingRelay struct {
	hub *hub.Hub
}

func NewTypingRelay(h *hub.Hub) *TypingRelay {
	return &TypingRelay{hub: h}
}

func (t *TypingRelay) Relay(sender *models.User, start bool, in TypingPayload) error {
	if (in.ChannelID == "") == (in.TargetUserID == "") {
		return apperr.ErrInvalidInput
	}
	evType := EvUserTyping
	if !start {
		evType = EvUserStoppedTyping
	}
	ev := Event{Type: evType, Payload: TypingEventPayload{
		ChannelID: in.ChannelID,
		UserID:    sender.ID,
		Username:  sender.Username,
	}}
	if in.ChannelID != "" {
		t.hub.BroadcastRoom(in.ChannelID, sender.ID, ev)
		return nil
	}
	t.hub.SendToUser(in.TargetUserID, ev)
	return nil
}
