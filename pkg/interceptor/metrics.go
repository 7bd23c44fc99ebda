// Kunhua Huang 2026

package interceptor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

var (
	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellowire_exchanges_total",
			Help: "Total number of exchanges handled by the listener",
		},
		[]string{"variant", "status"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hellowire_exchange_duration_seconds",
			Help:    "Duration of exchanges in seconds, from accept to close",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)
	bytesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellowire_bytes_received_total",
			Help: "Bytes read from clients",
		},
		[]string{"variant"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hellowire_bytes_sent_total",
			Help: "Bytes written to clients",
		},
		[]string{"variant"},
	)
)

func init() {
	prometheus.MustRegister(exchangesTotal)
	prometheus.MustRegister(exchangeDuration)
	prometheus.MustRegister(bytesReceived)
	prometheus.MustRegister(bytesSent)
}

// Metrics records exchange counts, durations and byte volumes under the given
// variant label.
func Metrics(variant string) Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) error {
		start := time.Now()

		counted := &countingConn{Connection: conn}
		err := invoker(ctx, counted)

		status := "success"
		if err != nil {
			status = "error"
		}

		exchangesTotal.WithLabelValues(variant, status).Inc()
		exchangeDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())
		bytesReceived.WithLabelValues(variant).Add(float64(counted.read))
		bytesSent.WithLabelValues(variant).Add(float64(counted.written))

		return err
	}
}

// countingConn is used by a single exchange goroutine, no locking needed.
type countingConn struct {
	transport.Connection
	read    int64
	written int64
}

func (c *countingConn) Read(p []byte) (int, error) {
	n, err := c.Connection.Read(p)
	c.read += int64(n)
	return n, err
}

func (c *countingConn) Write(p []byte) (int, error) {
	n, err := c.Connection.Write(p)
	c.written += int64(n)
	return n, err
}
