package realtime

import "sync"

// ViewState records which single conversation a connection currently has
// open. Setting one side clears the other. It is written only by the
// owning session; delivery paths read it at notification-decision time,
// hence the lock.
type ViewState struct {
	mu        sync.RWMutex
	channelID string
	dmPeerID  string
}

func (v *ViewState) SetChannel(channelID string) {
	v.mu.Lock()
	v.channelID = channelID
	v.dmPeerID = ""
	v.mu.Unlock()
}

func (v *ViewState) SetDM(peerID string) {
	v.mu.Lock()
	v.dmPeerID = peerID
	v.channelID = ""
	v.mu.Unlock()
}

func (v *ViewState) IsViewingChannel(channelID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return channelID != "" && v.channelID == channelID
}

func (v *ViewState) IsViewingDM(peerID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return peerID != "" && v.dmPeerID == peerID
}
