package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the relay.
type Metrics struct {
	OnlineUsers      prometheus.Gauge
	ConnectionEvents *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	ChatDeliveries   *prometheus.CounterVec
	CallRelays       *prometheus.CounterVec
	DroppedFrames    *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OnlineUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Number of users with a live session.",
		}),
		ConnectionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_events_total",
			Help:      "Connection lifecycle events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket frames by direction and type.",
		}, []string{"direction", "type"}),
		ChatDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_deliveries_total",
			Help:      "Chat delivery attempts by outcome.",
		}, []string{"outcome"}),
		CallRelays: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_relays_total",
			Help:      "Call signal relay attempts by outcome.",
		}, []string{"outcome"}),
		DroppedFrames: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Inbound frames dropped by reason.",
		}, []string{"reason"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
