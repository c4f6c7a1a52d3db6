package relayserver

import "github.com/prometheus/client_golang/prometheus"

var (
	clientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "olaf",
		Subsystem: "relay",
		Name:      "clients_connected",
		Help:      "Number of locally connected clients.",
	})
	framesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "olaf",
		Subsystem: "relay",
		Name:      "frames_dropped_total",
		Help:      "Number of inbound frames dropped, by reason.",
	}, []string{"reason"})
	chatFramesForwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "olaf",
		Subsystem: "relay",
		Name:      "chat_frames_forwarded_total",
		Help:      "Number of chat frames forwarded to another server.",
	})
	publicChatBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "olaf",
		Subsystem: "relay",
		Name:      "public_chat_broadcast_total",
		Help:      "Number of public_chat frames broadcast locally.",
	})
)

func init() {
	prometheus.MustRegister(clientsConnected, framesDropped, chatFramesForwarded, publicChatBroadcast)
}
