package ws

import (
	"encoding/json"
	"sync"

	"github.com/hilthontt/converse/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// EventSink receives best-effort notifications about presence and relay
// activity (wired to the chat event publisher). A nil sink disables it; the
// core never waits on it.
type EventSink interface {
	UserOnline(userID string)
	UserOffline(userID string)
	MessageRelayed(conversationID, senderID, messageID string)
}

// Core routes inbound connection events: registry mutation first, then the
// computed broadcast. One connection's malformed input never affects others.
type Core struct {
	presence *Presence
	typing   *Typing
	rooms    *RoomManager

	mu      sync.RWMutex
	clients map[string]*Client

	sink   EventSink
	logger *zap.SugaredLogger
}

func NewCore(logger *zap.SugaredLogger, sink EventSink) *Core {
	return &Core{
		presence: NewPresence(),
		typing:   NewTyping(),
		rooms:    NewRoomManager(),
		clients:  make(map[string]*Client),
		sink:     sink,
		logger:   logger,
	}
}

func (co *Core) Presence() *Presence { return co.presence }

// Accept registers a freshly-upgraded connection with the core.
func (co *Core) Accept(c *Client) {
	co.mu.Lock()
	co.clients[c.ID] = c
	n := len(co.clients)
	co.mu.Unlock()

	metrics.ActiveConnections.Set(float64(n))
}

// Dispatch routes one inbound event. Malformed or unauthorized events are
// dropped; they never close the connection.
func (co *Core) Dispatch(c *Client, ev *InboundEvent) {
	switch ev.Event {
	case EventJoin, EventUserOnline:
		var p IdentityPayload
		if !co.decode(c, ev, &p) || p.UserID == "" {
			co.drop(c, ev.Event)
			return
		}
		co.handleJoin(c, p.UserID)

	case EventJoinConversation:
		var p ConversationPayload
		if !co.decode(c, ev, &p) || p.ConversationID == "" {
			co.drop(c, ev.Event)
			return
		}
		co.rooms.Join(p.ConversationID, c)

	case EventLeaveConversation:
		var p ConversationPayload
		if !co.decode(c, ev, &p) || p.ConversationID == "" {
			co.drop(c, ev.Event)
			return
		}
		co.handleLeaveConversation(c, p.ConversationID)

	case EventSendMessage:
		var p MessagePayload
		if !co.decode(c, ev, &p) || p.SenderID == "" || p.ConversationID == "" {
			co.drop(c, ev.Event)
			return
		}
		if c.UserID() == "" {
			co.drop(c, ev.Event)
			return
		}
		co.handleSendMessage(c, p)

	case EventTyping:
		var p TypingPayload
		if !co.decode(c, ev, &p) || p.UserID == "" || p.ConversationID == "" {
			co.drop(c, ev.Event)
			return
		}
		if c.UserID() == "" {
			co.drop(c, ev.Event)
			return
		}
		co.handleTyping(c, p)

	case EventLogout:
		userID := c.UserID()
		if userID == "" {
			co.drop(c, ev.Event)
			return
		}
		// The payload names the user logging out; it must match the bound
		// identity when present.
		if len(ev.Data) > 0 {
			var p IdentityPayload
			if err := json.Unmarshal(ev.Data, &p); err != nil || (p.UserID != "" && p.UserID != userID) {
				co.drop(c, ev.Event)
				return
			}
		}
		co.handleLogout(c)

	default:
		co.drop(c, ev.Event)
	}
}

// Disconnect tears a connection down exactly once: room membership, typing
// state, presence, then the offline broadcast. Safe to call from both the
// read pump and the transport handler.
func (co *Core) Disconnect(c *Client) {
	co.mu.Lock()
	_, known := co.clients[c.ID]
	delete(co.clients, c.ID)
	n := len(co.clients)
	co.mu.Unlock()

	if !known {
		// Already torn down (double-disconnect).
		return
	}

	metrics.ActiveConnections.Set(float64(n))

	// Typing cleanup keys off the bound identity, not the presence registry:
	// a superseded or logged-out connection still owes its rooms a typing
	// delta when it goes away.
	left := co.rooms.LeaveAll(c)
	co.clearTyping(c.UserID(), left)
	co.announceOffline(c)

	close(c.done)
	_ = c.conn.Close()
}

func (co *Core) handleJoin(c *Client, userID string) {
	c.bind(userID)
	co.presence.Register(userID, c.ID)
	metrics.OnlineUsers.Set(float64(co.presence.Count()))

	co.broadcastAll(NewUserStatus(userID, StatusOnline))
	co.broadcastAll(NewOnlineUsers(co.presence.Online()))

	if co.sink != nil {
		go co.sink.UserOnline(userID)
	}
}

func (co *Core) handleLeaveConversation(c *Client, conversationID string) {
	co.rooms.Leave(conversationID, c)

	if userID := c.UserID(); userID != "" {
		if typers, changed := co.typing.Clear(conversationID, userID); changed {
			co.rooms.Broadcast(conversationID, NewTypingStatus(conversationID, typers), "")
		}
	}
}

func (co *Core) handleSendMessage(c *Client, p MessagePayload) {
	// Relay verbatim to the whole room, the sender's own connection included,
	// so clients can reconcile optimistic local state by message id.
	co.rooms.Broadcast(p.ConversationID, NewMessageEvent(p), "")
	metrics.MessagesRelayed.Inc()

	if typers, changed := co.typing.Clear(p.ConversationID, p.SenderID); changed {
		co.rooms.Broadcast(p.ConversationID, NewTypingStatus(p.ConversationID, typers), "")
	}

	if co.sink != nil {
		go co.sink.MessageRelayed(p.ConversationID, p.SenderID, p.MessageID)
	}
}

func (co *Core) handleTyping(c *Client, p TypingPayload) {
	// Typing state is only tracked for rooms the connection is actually in;
	// otherwise disconnect cleanup could never find the entry.
	if !co.rooms.IsMember(p.ConversationID, c.ID) {
		co.drop(c, EventTyping)
		return
	}

	typers := co.typing.Set(p.ConversationID, p.UserID, p.IsTyping)
	metrics.TypingEvents.Inc()

	// The typist already knows; everyone else in the room gets the update.
	co.rooms.Broadcast(p.ConversationID, NewTypingStatus(p.ConversationID, typers), c.ID)
}

func (co *Core) handleLogout(c *Client) {
	// Same cleanup as the disconnect path, but the connection stays open and
	// keeps its room membership.
	co.clearTyping(c.UserID(), co.rooms.RoomsOf(c.ID))
	co.announceOffline(c)
}

// clearTyping drops the user from each conversation's typing set and sends
// the delta to the room when the set changed.
func (co *Core) clearTyping(userID string, conversations []string) {
	if userID == "" {
		return
	}

	for _, conversationID := range conversations {
		if typers, changed := co.typing.Clear(conversationID, userID); changed {
			co.rooms.Broadcast(conversationID, NewTypingStatus(conversationID, typers), "")
		}
	}
}

// announceOffline removes the connection from the presence registry and, if it
// was still the user's current connection, broadcasts the offline delta. A
// superseded or already-logged-out connection announces nothing.
func (co *Core) announceOffline(c *Client) {
	userID, ok := co.presence.UnregisterConn(c.ID)
	if !ok {
		return
	}

	metrics.OnlineUsers.Set(float64(co.presence.Count()))
	co.broadcastAll(NewUserStatus(userID, StatusOffline))
	co.broadcastAll(NewOnlineUsers(co.presence.Online()))

	if co.sink != nil {
		go co.sink.UserOffline(userID)
	}
}

func (co *Core) broadcastAll(msg *WSMessage) {
	co.mu.RLock()
	targets := make([]*Client, 0, len(co.clients))
	for _, cl := range co.clients {
		targets = append(targets, cl)
	}
	co.mu.RUnlock()

	for _, cl := range targets {
		if !cl.trySend(msg) {
			metrics.BroadcastDropped.Inc()
		}
	}
}

func (co *Core) decode(c *Client, ev *InboundEvent, dst any) bool {
	if len(ev.Data) == 0 {
		return false
	}
	if err := json.Unmarshal(ev.Data, dst); err != nil {
		co.logger.Debugw("dropping malformed payload", "connId", c.ID, "event", ev.Event, "error", err)
		return false
	}
	return true
}

func (co *Core) drop(c *Client, event string) {
	metrics.ProtocolErrors.Inc()
	co.logger.Debugw("dropping event", "connId", c.ID, "event", event)
}
