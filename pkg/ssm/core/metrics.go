package core

import "github.com/prometheus/client_golang/prometheus"

// serverMetrics instruments one relay. Each server owns its registry
// so several relays can coexist in a process, which the tests rely on.
type serverMetrics struct {
	registry *prometheus.Registry

	acceptedUpdates prometheus.Counter
	rejectedUpdates prometheus.Counter
	connections     prometheus.Gauge
	groups          prometheus.Gauge
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		acceptedUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssm_relay_updates_accepted_total",
			Help: "Updates accepted into a group history.",
		}),
		rejectedUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssm_relay_updates_rejected_total",
			Help: "Updates rejected by packet counter arbitration.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ssm_relay_connections",
			Help: "Currently served client connections.",
		}),
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ssm_relay_groups",
			Help: "Groups created since the relay started.",
		}),
	}
	m.registry.MustRegister(m.acceptedUpdates, m.rejectedUpdates, m.connections, m.groups)
	return m
}
