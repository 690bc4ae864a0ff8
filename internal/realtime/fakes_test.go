package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeConn stands in for a live websocket connection in hub-backed tests.
type fakeConn struct {
	mu          sync.Mutex
	userID      string
	events      []Event
	viewChannel string
	viewDM      string
	drop        bool // full outbound buffer: Enqueue refuses everything
}

func newFakeConn(userID string) *fakeConn {
	return &fakeConn{userID: userID}
}

func (c *fakeConn) UserID() string { return c.userID }

func (c *fakeConn) Enqueue(v any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drop {
		return false
	}
	ev, ok := v.(Event)
	if !ok {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func (c *fakeConn) IsViewingChannel(channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return channelID != "" && c.viewChannel == channelID
}

func (c *fakeConn) IsViewingDM(peerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return peerID != "" && c.viewDM == peerID
}

func (c *fakeConn) SetViewChannel(channelID string) {
	c.mu.Lock()
	c.viewChannel = channelID
	c.viewDM = ""
	c.mu.Unlock()
}

func (c *fakeConn) SetViewDM(peerID string) {
	c.mu.Lock()
	c.viewDM = peerID
	c.viewChannel = ""
	c.mu.Unlock()
}

func (c *fakeConn) eventsOfType(t string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fakeDirectory struct {
	users    map[string]models.User
	members  map[string][]string // teamID -> userIDs
	channels map[string]models.Channel
	statuses map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:    make(map[string]models.User),
		members:  make(map[string][]string),
		channels: make(map[string]models.Channel),
		statuses: make(map[string]string),
	}
}

func (d *fakeDirectory) addUser(id, username string) {
	d.users[id] = models.User{ID: id, Username: username}
}

func (d *fakeDirectory) addChannel(id, teamID, name string) {
	d.channels[id] = models.Channel{ID: id, TeamID: teamID, Name: name}
}

func (d *fakeDirectory) addMember(teamID, userID string) {
	d.members[teamID] = append(d.members[teamID], userID)
}

func (d *fakeDirectory) GetUser(_ context.Context, userID string) (*models.User, error) {
	u, ok := d.users[userID]
	if !ok {
		return nil, apperr.ErrUnknownUser
	}
	return &u, nil
}

func (d *fakeDirectory) SetUserStatus(_ context.Context, userID, status string) error {
	d.statuses[userID] = status
	return nil
}

func (d *fakeDirectory) IsTeamMember(_ context.Context, teamID, userID string) (bool, error) {
	for _, id := range d.members[teamID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) ListTeamMembers(_ context.Context, teamID string) ([]models.User, error) {
	var out []models.User
	for _, id := range d.members[teamID] {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) GetChannel(_ context.Context, channelID string) (*models.Channel, error) {
	ch, ok := d.channels[channelID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &ch, nil
}

func (d *fakeDirectory) ChannelsForUser(_ context.Context, userID string) ([]models.Channel, error) {
	var out []models.Channel
	for _, ch := range d.channels {
		for _, id := range d.members[ch.TeamID] {
			if id == userID {
				out = append(out, ch)
				break
			}
		}
	}
	return out, nil
}

type fakeMessageStore struct {
	mu        sync.Mutex
	messages  []models.ChannelMessage
	insertErr error
}

func (s *fakeMessageStore) InsertChannelMessage(_ context.Context, m *models.ChannelMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeMessageStore) CountChannelUnread(_ context.Context, userID, channelID string, after time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ChannelID == channelID && m.AuthorID != userID && m.CreatedAt.After(after) {
			n++
		}
	}
	return n, nil
}

func (s *fakeMessageStore) ListChannelMessages(_ context.Context, channelID string, limit int64) ([]models.ChannelMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChannelMessage
	for _, m := range s.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	if int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

type fakeDMStore struct {
	mu       sync.Mutex
	messages []models.DirectMessage
}

func (s *fakeDMStore) InsertDirectMessage(_ context.Context, m *models.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeDMStore) CountUnreadFrom(_ context.Context, receiverID, senderID string, after time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.CreatedAt.After(after) {
			n++
		}
	}
	return n, nil
}

func (s *fakeDMStore) DistinctSenders(_ context.Context, receiverID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !seen[m.SenderID] {
			seen[m.SenderID] = true
			out = append(out, m.SenderID)
		}
	}
	return out, nil
}

func (s *fakeDMStore) MarkRead(_ context.Context, receiverID, senderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].SenderID == senderID && s.messages[i].ReceiverID == receiverID {
			s.messages[i].Read = true
		}
	}
	return nil
}

// fakeWatermarkStore keeps $max semantics: a watermark never regresses.
type fakeWatermarkStore struct {
	mu       sync.Mutex
	channels map[string]time.Time
	dms      map[string]time.Time
	setErr   error
}

func newFakeWatermarkStore() *fakeWatermarkStore {
	return &fakeWatermarkStore{
		channels: make(map[string]time.Time),
		dms:      make(map[string]time.Time),
	}
}

func (s *fakeWatermarkStore) ChannelWatermark(_ context.Context, userID, channelID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[userID+"|"+channelID], nil
}

func (s *fakeWatermarkStore) SetChannelWatermark(_ context.Context, userID, channelID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	key := userID + "|" + channelID
	if t.After(s.channels[key]) {
		s.channels[key] = t
	}
	return nil
}

func (s *fakeWatermarkStore) DMWatermark(_ context.Context, userID, otherUserID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dms[userID+"|"+otherUserID], nil
}

func (s *fakeWatermarkStore) SetDMWatermark(_ context.Context, userID, otherUserID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "|" + otherUserID
	if t.After(s.dms[key]) {
		s.dms[key] = t
	}
	return nil
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
	insertErr     error
}

func (s *fakeNotificationStore) Insert(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *fakeNotificationStore) forUser(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeFeed struct {
	mu     sync.Mutex
	events []any
}

func (f *fakeFeed) Publish(_ context.Context, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}
