package ws

// Client -> server events.
const (
	EventJoin              = "join"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "sendMessage"
	EventTyping            = "typing"
	EventUserOnline        = "userOnline"
	EventLogout            = "logout"
)

// Server -> client events.
const (
	EventOnlineUsers  = "onlineUsers"
	EventUserStatus   = "userStatus"
	EventNewMessage   = "newMessage"
	EventTypingStatus = "typingStatus"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)
