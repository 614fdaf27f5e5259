package ws

import (
	"sort"
	"sync"
)

// Presence is the bidirectional user <-> connection registry: the source of
// truth for who is online. One connection per user, last write wins; a
// superseded connection's reverse mapping is dropped so its eventual
// disconnect cannot knock the user offline.
type Presence struct {
	mu       sync.RWMutex
	userConn map[string]string // userID -> connID
	connUser map[string]string // connID -> userID
}

func NewPresence() *Presence {
	return &Presence{
		userConn: make(map[string]string),
		connUser: make(map[string]string),
	}
}

func (p *Presence) Register(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A connection re-identifying as a different user frees its old identity.
	if prev, ok := p.connUser[connID]; ok && prev != userID {
		if p.userConn[prev] == connID {
			delete(p.userConn, prev)
		}
	}

	// Last write wins per user: forget the superseded connection.
	if old, ok := p.userConn[userID]; ok && old != connID {
		delete(p.connUser, old)
	}

	p.userConn[userID] = connID
	p.connUser[connID] = userID
}

// UnregisterConn removes both directions and returns the freed user id.
// Unknown connections are not an error: they arise from benign
// double-disconnects and superseded connections.
func (p *Presence) UnregisterConn(connID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.connUser[connID]
	if !ok {
		return "", false
	}

	delete(p.connUser, connID)
	if p.userConn[userID] == connID {
		delete(p.userConn, userID)
	}

	return userID, true
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.userConn[userID]
	return ok
}

// Online returns a snapshot of online user ids, sorted for stable payloads.
func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.userConn))
	for userID := range p.userConn {
		users = append(users, userID)
	}
	sort.Strings(users)

	return users
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.userConn)
}
