package ws

import (
	"sync"

	"github.com/hilthontt/converse/internal/infrastructure/metrics"
)

// RoomManager owns the conversation room membership table: which connections
// receive events scoped to a conversation. Membership is independent of the
// presence registry; an unidentified connection may sit in a room.
type RoomManager struct {
	mu         sync.RWMutex
	rooms      map[string]map[string]*Client   // conversationID -> connID -> client
	membership map[string]map[string]struct{} // connID -> set of conversationIDs
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:      make(map[string]map[string]*Client),
		membership: make(map[string]map[string]struct{}),
	}
}

func (rm *RoomManager) Join(roomID string, cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		rm.rooms[roomID] = room
	}
	room[cl.ID] = cl

	joined, ok := rm.membership[cl.ID]
	if !ok {
		joined = make(map[string]struct{})
		rm.membership[cl.ID] = joined
	}
	joined[roomID] = struct{}{}
}

func (rm *RoomManager) Leave(roomID string, cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.leaveLocked(roomID, cl.ID)
}

// LeaveAll removes the connection from every room and returns the rooms it
// belonged to, so the caller can clear typing state per conversation.
func (rm *RoomManager) LeaveAll(cl *Client) []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	joined := rm.membership[cl.ID]
	left := make([]string, 0, len(joined))
	for roomID := range joined {
		left = append(left, roomID)
	}
	for _, roomID := range left {
		rm.leaveLocked(roomID, cl.ID)
	}

	return left
}

// IsMember reports whether the connection currently belongs to the room.
func (rm *RoomManager) IsMember(roomID, connID string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	_, ok := rm.rooms[roomID][connID]
	return ok
}

// RoomsOf returns a snapshot of the rooms a connection currently belongs to.
func (rm *RoomManager) RoomsOf(connID string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	joined := rm.membership[connID]
	rooms := make([]string, 0, len(joined))
	for roomID := range joined {
		rooms = append(rooms, roomID)
	}

	return rooms
}

func (rm *RoomManager) leaveLocked(roomID, connID string) {
	if room, ok := rm.rooms[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(rm.rooms, roomID)
		}
	}
	if joined, ok := rm.membership[connID]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(rm.membership, connID)
		}
	}
}

// Broadcast fans the payload out to every member of the room, skipping
// exceptConnID when set. Delivery per destination is send-and-forget: a slow
// client's full buffer drops the payload rather than stalling the others.
func (rm *RoomManager) Broadcast(roomID string, msg *WSMessage, exceptConnID string) {
	rm.mu.RLock()
	room := rm.rooms[roomID]
	members := make([]*Client, 0, len(room))
	for _, cl := range room {
		if cl.ID == exceptConnID {
			continue
		}
		members = append(members, cl)
	}
	rm.mu.RUnlock()

	for _, cl := range members {
		if !cl.trySend(msg) {
			metrics.BroadcastDropped.Inc()
		}
	}
}
