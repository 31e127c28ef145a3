package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Current number of active websocket connections",
	})
	MessagesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_persisted_total",
		Help: "Total number of chat messages durably appended",
	})
	PresenceEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_presence_events_total",
		Help: "Total number of presence events broadcast locally",
	}, []string{"kind"})
	BackplanePublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_backplane_published_total",
		Help: "Total number of events published to the backplane",
	})
	BackplaneReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_backplane_received_total",
		Help: "Total number of remote events relayed from the backplane",
	})
	BackplaneDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_backplane_dropped_total",
		Help: "Total number of backplane publishes that failed",
	})
	BackplaneDegraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_backplane_degraded",
		Help: "1 when the backplane is unreachable and fan-out is local only",
	})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		MessagesPersisted,
		PresenceEvents,
		BackplanePublished,
		BackplaneReceived,
		BackplaneDropped,
		BackplaneDegraded,
	)
}
