package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// DBPoolCollector exports pgxpool statistics, read at scrape time.
type DBPoolCollector struct {
	pool *pgxpool.Pool

	connections *prometheus.Desc
	acquires    *prometheus.Desc
	emptyWaits  *prometheus.Desc
	acquireWait *prometheus.Desc
}

func NewDBPoolCollector(pool *pgxpool.Pool) *DBPoolCollector {
	return &DBPoolCollector{
		pool: pool,
		connections: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "db", "pool_connections"),
			"Number of database connections by state",
			[]string{"state"}, nil,
		),
		acquires: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "db", "pool_acquires_total"),
			"Connections acquired from the pool",
			nil, nil,
		),
		emptyWaits: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "db", "pool_empty_acquires_total"),
			"Acquires that had to wait for a free connection",
			nil, nil,
		),
		acquireWait: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "db", "pool_acquire_wait_seconds_total"),
			"Time spent waiting to acquire connections",
			nil, nil,
		),
	}
}

// RegisterDBPool exports pool stats on the default registry, replacing any
// pool registered earlier.
func RegisterDBPool(pool *pgxpool.Pool) error {
	c := NewDBPoolCollector(pool)
	prometheus.Unregister(c)
	return prometheus.Register(c)
}

func (c *DBPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.acquires
	ch <- c.emptyWaits
	ch <- c.acquireWait
}

func (c *DBPoolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stat()

	for state, n := range map[string]int32{
		"in_use": stats.AcquiredConns(),
		"idle":   stats.IdleConns(),
		"total":  stats.TotalConns(),
		"max":    stats.MaxConns(),
	} {
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(n), state)
	}

	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(stats.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyWaits, prometheus.CounterValue, float64(stats.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, stats.AcquireDuration().Seconds())
}
