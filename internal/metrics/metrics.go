// Package metrics exposes the server's Prometheus instrumentation,
// adapted from the teacher's connection/broadcast counters to the
// command/expiration/watch/pub-sub concerns of a key/value store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvredis_commands_total",
		Help: "Commands processed, by name and outcome.",
	}, []string{"command", "outcome"})

	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvredis_connections_active",
		Help: "Current number of open client connections.",
	})

	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvredis_connections_total",
		Help: "Total client connections accepted.",
	})

	KeysPerDB = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kvredis_keys",
		Help: "Live key count, by database index.",
	}, []string{"db"})

	ExpiredKeysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvredis_expired_keys_total",
		Help: "Keys evicted for passing their deadline, by eviction path.",
	}, []string{"path"}) // "lazy" or "active"

	WatchAbortsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvredis_watch_aborts_total",
		Help: "EXEC calls that returned a null array because a watched key changed.",
	})

	PubSubDeliveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvredis_pubsub_delivered_total",
		Help: "Pub/sub messages successfully queued into a subscriber mailbox.",
	})

	PubSubDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvredis_pubsub_dropped_total",
		Help: "Pub/sub messages dropped because a subscriber's mailbox was full.",
	})

	SlowSubscribersDisconnectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvredis_slow_subscribers_disconnected_total",
		Help: "Connections closed for repeatedly failing to drain their pub/sub mailbox.",
	})

	OOMRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvredis_oom_rejections_total",
		Help: "Write commands rejected because resident memory exceeded maxmemory.",
	})

	MemoryUsedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvredis_memory_used_bytes",
		Help: "Process resident memory, as sampled by the OOM guard.",
	})
)

func init() {
	prometheus.MustRegister(
		CommandsTotal,
		ConnectionsActive,
		ConnectionsTotal,
		KeysPerDB,
		ExpiredKeysTotal,
		WatchAbortsTotal,
		PubSubDeliveredTotal,
		PubSubDroppedTotal,
		SlowSubscribersDisconnectedTotal,
		OOMRejectionsTotal,
		MemoryUsedBytes,
	)
}

// Handler returns the Prometheus scrape handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
