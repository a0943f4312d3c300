package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/admin"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/checkout"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/metrics"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"

	maxBodyBytes = 1 << 20
)

type Deps struct {
	Catalog  catalog.Provider
	Carts    *cart.Registry
	Checkout *checkout.Service
	// Admin is optional; without it the /admin routes are not mounted.
	Admin    *admin.Service
	Metrics  *metrics.ServerMetrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	// Ready backs /health when set, typically a database ping.
	Ready func(ctx context.Context) error
}

type Server struct {
	Deps
	newSessionID func() string
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{Deps: d, newSessionID: uuid.NewString}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil {
			if err := s.Ready(r.Context()); err != nil {
				s.Logger.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "db_error"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler(s.Gatherer))

	s.route(mux, "GET /products", "products_list", s.listProducts)
	s.route(mux, "GET /products/{id}", "products_get", s.getProduct)

	s.route(mux, "GET /cart", "cart_get", s.getCart)
	s.route(mux, "DELETE /cart", "cart_clear", s.clearCart)
	s.route(mux, "POST /cart/items", "cart_add", s.addItem)
	s.route(mux, "PATCH /cart/items/{id}", "cart_update", s.updateItem)
	s.route(mux, "DELETE /cart/items/{id}", "cart_remove", s.removeItem)
	s.route(mux, "PUT /cart/items/{id}/prescription", "cart_prescription", s.attachPrescription)
	s.route(mux, "PUT /cart/coupon", "cart_coupon_apply", s.applyCoupon)
	s.route(mux, "DELETE /cart/coupon", "cart_coupon_remove", s.removeCoupon)
	s.route(mux, "POST /cart/open", "cart_open", s.visibility(cart.Open{}))
	s.route(mux, "POST /cart/close", "cart_close", s.visibility(cart.Close{}))
	s.route(mux, "POST /cart/toggle", "cart_toggle", s.visibility(cart.ToggleVisibility{}))

	s.route(mux, "POST /checkout", "checkout", s.placeOrder)
	s.route(mux, "GET /orders", "orders_list", s.listOrders)
	s.route(mux, "GET /orders/{id}", "orders_get", s.getOrder)

	if s.Admin != nil {
		s.route(mux, "POST /admin/products", "admin_create", s.createProduct)
		s.route(mux, "PUT /admin/products/{id}", "admin_update", s.updateProduct)
		s.route(mux, "DELETE /admin/products/{id}", "admin_delete", s.deleteProduct)
	}
	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	if s.Metrics != nil {
		h = s.Metrics.Instrument(name, h)
	}
	mux.HandleFunc(pattern, h)
}

// session returns the caller's session id, issuing a new one when the request
// carries neither the header nor the cookie. The id is always echoed back.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if id == "" {
		id = s.newSessionID()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(SessionHeader, id)
	return id
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

var (
	errBadRequest = errors.New("bad request")
	errEmptyBody  = errors.New("request body is required")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, cart.ErrProductRequired),
		errors.Is(err, cart.ErrQuantityPositive),
		errors.Is(err, cart.ErrNegativePrice),
		errors.Is(err, checkout.ErrInvalidAddress),
		errors.Is(err, admin.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, errItemNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrPrescriptionMissing),
		errors.Is(err, errOutOfStock),
		errors.Is(err, catalog.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", errBadRequest, errEmptyBody)
		}
		return badRequest("invalid json")
	}
	return nil
}
