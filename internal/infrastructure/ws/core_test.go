package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCore() *Core {
	return NewCore(zap.NewNop().Sugar(), nil)
}

func newTestClient(core *Core) *Client {
	c := NewClient(nil, 16, 0)
	core.Accept(c)
	return c
}

func dispatch(t *testing.T, core *Core, c *Client, event string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	core.Dispatch(c, &InboundEvent{Event: event, Data: data})
}

func join(t *testing.T, core *Core, c *Client, userID string) {
	t.Helper()
	dispatch(t, core, c, EventJoin, IdentityPayload{UserID: userID})
}

// drain empties the client's send buffer and returns what was queued.
func drain(c *Client) []*WSMessage {
	var out []*WSMessage
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func eventsOf(msgs []*WSMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Event)
	}
	return out
}

func lastOnlineUsers(t *testing.T, msgs []*WSMessage) []string {
	t.Helper()

	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Event == EventOnlineUsers {
			payload, ok := msgs[i].Data.(OnlineUsersPayload)
			require.True(t, ok)
			return payload.UserIDs
		}
	}

	t.Fatal("no onlineUsers event queued")
	return nil
}

func TestJoinBroadcastsPresence(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	drain(alice)
	drain(bob)

	join(t, core, bob, "bob")

	require.Equal(t, "bob", bob.UserID())
	require.True(t, core.Presence().IsOnline("bob"))

	// Everyone, the joiner included, sees the status change and the roster.
	for _, c := range []*Client{alice, bob} {
		msgs := drain(c)
		require.Equal(t, []string{EventUserStatus, EventOnlineUsers}, eventsOf(msgs))

		status, ok := msgs[0].Data.(UserStatusPayload)
		require.True(t, ok)
		require.Equal(t, "bob", status.UserID)
		require.Equal(t, StatusOnline, status.Status)

		require.Equal(t, []string{"alice", "bob"}, lastOnlineUsers(t, msgs))
	}
}

func TestSendMessageReachesWholeRoom(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)
	carol := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	join(t, core, carol, "carol")

	dispatch(t, core, alice, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	drain(alice)
	drain(bob)
	drain(carol)

	payload := MessagePayload{
		SenderID:       "alice",
		ConversationID: "alice_bob",
		Message:        "hey",
		MessageID:      "m1",
	}
	dispatch(t, core, alice, EventSendMessage, payload)

	// Both room members get the verbatim relay, the sender included.
	for _, c := range []*Client{alice, bob} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		require.Equal(t, EventNewMessage, msgs[0].Event)
		require.Equal(t, payload, msgs[0].Data.(MessagePayload))
	}

	// carol never joined the room.
	require.Empty(t, drain(carol))
}

func TestSendMessageFromUnidentifiedDropped(t *testing.T) {
	core := newTestCore()
	anon := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, bob, "bob")
	dispatch(t, core, anon, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	drain(anon)
	drain(bob)

	dispatch(t, core, anon, EventSendMessage, MessagePayload{
		SenderID:       "alice",
		ConversationID: "alice_bob",
		Message:        "spoofed",
	})

	require.Empty(t, drain(bob))
	require.Empty(t, drain(anon))
}

func TestTypingExcludesTypist(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, alice, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	drain(alice)
	drain(bob)

	dispatch(t, core, alice, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})

	require.Empty(t, drain(alice))

	msgs := drain(bob)
	require.Len(t, msgs, 1)
	require.Equal(t, EventTypingStatus, msgs[0].Event)

	status := msgs[0].Data.(TypingStatusPayload)
	require.Equal(t, "alice_bob", status.ConversationID)
	require.Equal(t, []string{"alice"}, status.TypingUsers)
}

func TestTypingOutsideRoomDropped(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	drain(alice)
	drain(bob)

	// alice never joined the room, so her typing signal is ignored.
	dispatch(t, core, alice, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})

	require.Empty(t, drain(bob))
}

func TestSendMessageClearsTyping(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, alice, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})

	dispatch(t, core, alice, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})
	drain(alice)
	drain(bob)

	dispatch(t, core, alice, EventSendMessage, MessagePayload{
		SenderID:       "alice",
		ConversationID: "alice_bob",
		Message:        "done typing",
	})

	msgs := drain(bob)
	require.Equal(t, []string{EventNewMessage, EventTypingStatus}, eventsOf(msgs))

	status := msgs[1].Data.(TypingStatusPayload)
	require.Empty(t, status.TypingUsers)
}

func TestLeaveConversationStopsDeliveryAndClearsTyping(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, alice, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})

	dispatch(t, core, alice, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})
	drain(alice)
	drain(bob)

	dispatch(t, core, alice, EventLeaveConversation, ConversationPayload{ConversationID: "alice_bob"})

	// Leaving mid-composition clears the indicator for those who remain.
	msgs := drain(bob)
	require.Len(t, msgs, 1)
	require.Equal(t, EventTypingStatus, msgs[0].Event)
	require.Empty(t, msgs[0].Data.(TypingStatusPayload).TypingUsers)

	dispatch(t, core, bob, EventSendMessage, MessagePayload{
		SenderID:       "bob",
		ConversationID: "alice_bob",
		Message:        "anyone there?",
	})
	require.Empty(t, drain(alice))
}

func TestLogoutAnnouncesOfflineButKeepsConnection(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	drain(alice)
	drain(bob)

	dispatch(t, core, alice, EventLogout, struct{}{})

	require.False(t, core.Presence().IsOnline("alice"))

	msgs := drain(bob)
	require.Equal(t, []string{EventUserStatus, EventOnlineUsers}, eventsOf(msgs))
	status := msgs[0].Data.(UserStatusPayload)
	require.Equal(t, "alice", status.UserID)
	require.Equal(t, StatusOffline, status.Status)
	require.Equal(t, []string{"bob"}, lastOnlineUsers(t, msgs))

	// The connection survives logout and can identify again.
	drain(alice)
	join(t, core, alice, "alice")
	require.True(t, core.Presence().IsOnline("alice"))
	require.Equal(t, []string{"alice", "bob"}, lastOnlineUsers(t, drain(bob)))
}

func TestDisconnectCleansUpEverything(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, alice, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})

	dispatch(t, core, alice, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})
	drain(alice)
	drain(bob)

	core.Disconnect(alice)

	require.False(t, core.Presence().IsOnline("alice"))

	msgs := drain(bob)
	require.Equal(t, []string{EventTypingStatus, EventUserStatus, EventOnlineUsers}, eventsOf(msgs))
	require.Empty(t, msgs[0].Data.(TypingStatusPayload).TypingUsers)
	require.Equal(t, []string{"bob"}, lastOnlineUsers(t, msgs))

	// Second disconnect is a no-op.
	core.Disconnect(alice)
	require.Empty(t, drain(bob))
}

func TestSupersededConnectionDisconnectIsSilent(t *testing.T) {
	core := newTestCore()
	old := newTestClient(core)
	fresh := newTestClient(core)
	observer := newTestClient(core)

	join(t, core, observer, "bob")
	join(t, core, old, "alice")
	join(t, core, fresh, "alice")
	drain(old)
	drain(fresh)
	drain(observer)

	// The stale connection going away must not flap alice's presence.
	core.Disconnect(old)

	require.True(t, core.Presence().IsOnline("alice"))
	require.Empty(t, drain(observer))
	require.Empty(t, drain(fresh))
}

func TestDisconnectOfSupersededConnectionClearsTyping(t *testing.T) {
	core := newTestCore()
	old := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, old, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, old, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})

	dispatch(t, core, old, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})

	// alice reconnects; the old connection is superseded but still mid-typing.
	fresh := newTestClient(core)
	join(t, core, fresh, "alice")
	drain(old)
	drain(bob)
	drain(fresh)

	core.Disconnect(old)

	// alice stays online via the fresh connection, but her typing entry for
	// the old connection's room is gone and the room hears about it.
	require.True(t, core.Presence().IsOnline("alice"))

	msgs := drain(bob)
	require.Equal(t, []string{EventTypingStatus}, eventsOf(msgs))
	require.Empty(t, msgs[0].Data.(TypingStatusPayload).TypingUsers)
	require.Empty(t, drain(fresh))

	_, changed := core.typing.Clear("alice_bob", "alice")
	require.False(t, changed, "typing registry must not still hold alice after her connection disconnected")
}

func TestTypingAfterLogoutClearedOnDisconnect(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	dispatch(t, core, alice, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})
	dispatch(t, core, bob, EventJoinConversation, ConversationPayload{ConversationID: "alice_bob"})

	dispatch(t, core, alice, EventLogout, IdentityPayload{UserID: "alice"})

	// Still bound and still a room member, so typing is accepted.
	dispatch(t, core, alice, EventTyping, TypingPayload{
		UserID:         "alice",
		ConversationID: "alice_bob",
		IsTyping:       true,
	})
	drain(alice)
	drain(bob)

	core.Disconnect(alice)

	// Presence was already gone, so no offline delta; the typing delta must
	// still reach the room.
	msgs := drain(bob)
	require.Equal(t, []string{EventTypingStatus}, eventsOf(msgs))
	require.Empty(t, msgs[0].Data.(TypingStatusPayload).TypingUsers)

	_, changed := core.typing.Clear("alice_bob", "alice")
	require.False(t, changed)
}

func TestLogoutWithMismatchedUserDropped(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)

	join(t, core, alice, "alice")
	drain(alice)

	dispatch(t, core, alice, EventLogout, IdentityPayload{UserID: "mallory"})

	require.True(t, core.Presence().IsOnline("alice"))
	require.Empty(t, drain(alice))
}

func TestMalformedAndUnknownEventsDropped(t *testing.T) {
	core := newTestCore()
	alice := newTestClient(core)
	bob := newTestClient(core)

	join(t, core, alice, "alice")
	join(t, core, bob, "bob")
	drain(alice)
	drain(bob)

	core.Dispatch(alice, &InboundEvent{Event: EventSendMessage, Data: json.RawMessage(`{"senderId":42}`)})
	core.Dispatch(alice, &InboundEvent{Event: "unknownEvent", Data: json.RawMessage(`{}`)})
	core.Dispatch(alice, &InboundEvent{Event: EventJoin})

	require.Empty(t, drain(alice))
	require.Empty(t, drain(bob))
	require.True(t, core.Presence().IsOnline("alice"))
}
