package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmacy"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Instrument records the status and latency of every request served by h
// under the given handler label.
func (m *ServerMetrics) Instrument(handler string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		m.Requests.WithLabelValues(handler, strconv.Itoa(rec.status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type CartMetrics struct {
	Mutations   *prometheus.CounterVec
	OrdersTotal prometheus.Counter
	OrderValue  prometheus.Histogram
}

func NewCartMetrics(reg prometheus.Registerer, service string) *CartMetrics {
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "cart_commands_total",
		Help:      "Cart commands dispatched, by kind.",
	}, []string{"kind"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Orders placed at checkout.",
	})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "order_total_dollars",
		Help:      "Order grand totals in dollars.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500},
	})

	reg.MustRegister(mutations, orders, value)
	return &CartMetrics{Mutations: mutations, OrdersTotal: orders, OrderValue: value}
}

func (m *CartMetrics) ObserveCommand(kind string) {
	m.Mutations.WithLabelValues(kind).Inc()
}

func (m *CartMetrics) ObserveOrder(total float64) {
	m.OrdersTotal.Inc()
	m.OrderValue.Observe(total)
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
