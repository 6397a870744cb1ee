// Package metrics exports delivery counters in the Prometheus text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"i4.energy/across/smsdeliver/sms"
)

// Collector records sends and balances on its own registry.
type Collector struct {
	registry *prometheus.Registry

	sendsTotal   *prometheus.CounterVec
	partsTotal   *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
	balance      prometheus.Gauge
	unlimited    prometheus.Gauge
}

// New creates a collector labelled with the provider name.
func New(provider string) *Collector {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"provider": provider}

	c := &Collector{registry: registry}

	c.sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "sms_sends_total",
			Help:        "Total number of send requests by mode and result",
			ConstLabels: constLabels,
		},
		[]string{"mode", "result"},
	)

	c.partsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "sms_parts_sent_total",
			Help:        "Total number of message parts handed to the provider",
			ConstLabels: constLabels,
		},
		[]string{"mode"},
	)

	c.sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "sms_send_duration_seconds",
			Help:        "Time spent sending a request, retries included",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	c.balance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "sms_balance",
		Help:        "Messages left as last reported by the provider",
		ConstLabels: constLabels,
	})

	c.unlimited = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "sms_balance_unlimited",
		Help:        "1 when the provider has no quota",
		ConstLabels: constLabels,
	})

	registry.MustRegister(c.sendsTotal, c.partsTotal, c.sendDuration, c.balance, c.unlimited)
	return c
}

// ObserveSend records one send request.
func (c *Collector) ObserveSend(mode string, parts int, d time.Duration, err error) {
	c.sendsTotal.WithLabelValues(mode, result(err)).Inc()
	if parts > 0 {
		c.partsTotal.WithLabelValues(mode).Add(float64(parts))
	}
	c.sendDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveBalance records the latest balance.
func (c *Collector) ObserveBalance(b sms.Balance) {
	if b.IsUnlimited() {
		c.unlimited.Set(1)
		return
	}
	c.unlimited.Set(0)
	c.balance.Set(float64(b))
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	switch sms.KindOf(err) {
	case sms.KindInput:
		return "input"
	case sms.KindAuth:
		return "auth"
	case sms.KindCommunication:
		return "communication"
	case sms.KindResponse:
		return "response"
	case sms.KindSend:
		return "send"
	}
	return "other"
}
