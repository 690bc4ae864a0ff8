package realtime

import (
	"context"
	"time"
)

// Unread computes unread counts on demand from watermarks and message
// timestamps. No cached counters: a mark-read followed by a count always
// reflects the new watermark.
type Unread struct {
	msgs  MessageStore
	dms   DMStore
	marks WatermarkStore
	dir   Directory

	// now is swappable for tests.
	now func() time.Time
}

func NewUnread(msgs MessageStore, dms DMStore, marks WatermarkStore, dir Directory) *Unread {
	return &Unread{msgs: msgs, dms: dms, marks: marks, dir: dir, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Unread) ChannelUnread(ctx context.Context, userID, channelID string) (int64, error) {
	wm, err := u.marks.ChannelWatermark(ctx, userID, channelID)
	if err != nil {
		return 0, err
	}
	return u.msgs.CountChannelUnread(ctx, userID, channelID, wm)
}

func (u *Unread) DMUnread(ctx context.Context, userID, peerID string) (int64, error) {
	wm, err := u.marks.DMWatermark(ctx, userID, peerID)
	if err != nil {
		return 0, err
	}
	return u.dms.CountUnreadFrom(ctx, userID, peerID, wm)
}

func (u *Unread) MarkChannelRead(ctx context.Context, userID, channelID string) error {
	return u.marks.SetChannelWatermark(ctx, userID, channelID, u.now())
}

// MarkDMRead advances the (user, peer) watermark and flips the read flag on
// the stored messages. Only this direction is touched; the peer's own
// watermark is independent.
func (u *Unread) MarkDMRead(ctx context.Context, userID, peerID string) error {
	if err := u.marks.SetDMWatermark(ctx, userID, peerID, u.now()); err != nil {
		return err
	}
	return u.dms.MarkRead(ctx, userID, peerID)
}

// AllCounts enumerates the user's channels and DM senders and returns only
// strictly positive counts.
func (u *Unread) AllCounts(ctx context.Context, userID string) (AllUnreadCountsPayload, error) {
	out := AllUnreadCountsPayload{
		Channels: []ChannelUnreadEntry{},
		DMs:      []DMUnreadEntry{},
	}
	channels, err := u.dir.ChannelsForUser(ctx, userID)
	if err != nil {
		return out, err
	}
	for _, ch := range channels {
		n, err := u.ChannelUnread(ctx, userID, ch.ID)
		if err != nil {
			return out, err
		}
		if n > 0 {
			out.Channels = append(out.Channels, ChannelUnreadEntry{ChannelID: ch.ID, Count: n})
		}
	}
	senders, err := u.dms.DistinctSenders(ctx, userID)
	if err != nil {
		return out, err
	}
	for _, senderID := range senders {
		n, err := u.DMUnread(ctx, userID, senderID)
		if err != nil {
			return out, err
		}
		if n > 0 {
			out.DMs = append(out.DMs, DMUnreadEntry{UserID: senderID, Count: n})
		}
	}
	return out, nil
}
