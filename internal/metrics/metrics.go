package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rt_active_connections",
		Help: "Active websocket connections",
	})
	MessagesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rt_messages_delivered_total",
		Help: "Message payloads pushed to live connections",
	})
	NotificationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rt_notifications_created_total",
		Help: "Notification records persisted",
	})
)

func Init() {
	prometheus.MustRegister(Connections, MessagesDelivered, NotificationsCreated)
}
