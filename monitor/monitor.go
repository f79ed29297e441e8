// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	CommandsReceived prometheus.Counter
	CommandLatency   prometheus.Histogram
	GamesStarted     prometheus.Counter
	GamesCompleted   prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected players",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live rooms",
		}),
		CommandsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_received_total",
			Help:      "Total number of game commands received",
		}),
		CommandLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Command processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Total number of games started",
		}),
		GamesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Total number of games that reached game over",
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.CommandsReceived,
		m.CommandLatency,
		m.GamesStarted,
		m.GamesCompleted,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	commandCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("commands", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.commandCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncCommandsReceived() {
	m.metrics.CommandsReceived.Inc()
	m.mutex.Lock()
	m.commandCount++
	m.mutex.Unlock()
}

func (m *Monitor) ObserveCommandLatency(duration time.Duration) {
	m.metrics.CommandLatency.Observe(duration.Seconds())
}

func (m *Monitor) IncGamesStarted() {
	m.metrics.GamesStarted.Inc()
}

func (m *Monitor) IncGamesCompleted() {
	m.metrics.GamesCompleted.Inc()
}
