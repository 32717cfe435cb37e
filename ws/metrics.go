package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"minichat/chat"
)

var (
	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "minichat_ws_sessions",
		Help: "Number of live websocket sessions.",
	})
	messagesSentCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minichat_messages_sent_total",
		Help: "Messages accepted over the live path.",
	})
	eventsPushedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minichat_events_pushed_total",
		Help: "Server events pushed to connections.",
	}, []string{"kind"})
)

func eventKind(ev *chat.ServerEvent) string {
	switch {
	case ev.NewMessage != nil:
		return "new_message"
	case ev.Notification != nil:
		return "message_notification"
	case ev.UserStatus != nil:
		return "user_status_changed"
	case ev.UserTyping != nil:
		return "user_typing"
	case ev.MessagesRead != nil:
		return "messages_read"
	case ev.Reaction != nil:
		return "message_reaction"
	case ev.Error != nil:
		return "message_error"
	}
	return "unknown"
}
