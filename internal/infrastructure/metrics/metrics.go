package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "converse_ws_active_connections",
		Help: "Current websocket connections.",
	})
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "converse_presence_online_users",
		Help: "Users currently registered as online.",
	})

	MessagesRelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "converse_ws_messages_relayed_total",
		Help: "Total chat messages fanned out to conversation rooms.",
	})
	TypingEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "converse_ws_typing_events_total",
		Help: "Total typing indicator events processed.",
	})
	BroadcastDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "converse_ws_broadcast_dropped_total",
		Help: "Total payloads dropped because a client send buffer was full.",
	})
	ProtocolErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "converse_ws_protocol_errors_total",
		Help: "Total malformed or unauthorized inbound events dropped.",
	})
)

func Register() {
	prometheus.MustRegister(
		ActiveConnections, OnlineUsers,
		MessagesRelayed, TypingEvents, BroadcastDropped, ProtocolErrors,
	)
}
