package ws

import (
	"sort"
	"sync"
)

// Typing tracks which users are composing a message, per conversation.
// Pure set semantics: adding a present user or removing an absent one is a
// no-op.
type Typing struct {
	mu     sync.Mutex
	typers map[string]map[string]struct{} // conversationID -> set of userIDs
}

func NewTyping() *Typing {
	return &Typing{
		typers: make(map[string]map[string]struct{}),
	}
}

// Set adds or removes a user and returns the conversation's current typers.
func (t *Typing) Set(conversationID, userID string, typing bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.typers[conversationID]
	if !ok {
		if !typing {
			return nil
		}
		set = make(map[string]struct{})
		t.typers[conversationID] = set
	}

	if typing {
		set[userID] = struct{}{}
	} else {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.typers, conversationID)
		}
	}

	return snapshot(set)
}

// Clear removes a user unconditionally. The bool reports whether the set
// changed; callers broadcast only on change to avoid redundant events.
func (t *Typing) Clear(conversationID, userID string) ([]string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.typers[conversationID]
	if !ok {
		return nil, false
	}
	if _, ok := set[userID]; !ok {
		return nil, false
	}

	delete(set, userID)
	if len(set) == 0 {
		delete(t.typers, conversationID)
	}

	return snapshot(set), true
}

func snapshot(set map[string]struct{}) []string {
	users := make([]string, 0, len(set))
	for userID := range set {
		users = append(users, userID)
	}
	sort.Strings(users)

	return users
}
