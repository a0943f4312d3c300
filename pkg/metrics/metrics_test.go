package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_CountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "storefront")

	h := m.Instrument("cart_get", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart?fail=1", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("cart_get", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("cart_get", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LatencyMS))
}

func TestCartMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg, "storefront")

	m.ObserveCommand("add_item")
	m.ObserveCommand("add_item")
	m.ObserveCommand("clear")
	m.ObserveOrder(34.05)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_item")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("clear")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersTotal))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg, "storefront")
	m.ObserveOrder(10)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pharmacy_storefront_orders_placed_total 1"))
}
