package httpapi

import (
	"errors"
	"net/http"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/checkout"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/idempotency"
)

const ReplayHeader = "Idempotent-Replay"

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := s.session(w, r)
	req := checkout.Request{IdempotencyKey: idempotency.Key(r)}
	// A keyed retry may omit the body; the replay does not need it.
	if err := decodeJSON(w, r, &req); err != nil && (req.IdempotencyKey == "" || !errors.Is(err, errEmptyBody)) {
		s.writeError(w, r, err)
		return
	}

	res, err := s.Checkout.PlaceOrder(r.Context(), sessionID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Replayed {
		w.Header().Set(ReplayHeader, "true")
		writeJSON(w, http.StatusOK, res.Order)
		return
	}
	writeJSON(w, http.StatusCreated, res.Order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Checkout.Orders(r.Context(), s.session(w, r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.Checkout.Order(r.Context(), s.session(w, r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.Admin.CreateProduct(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.Admin.UpdateProduct(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.Admin.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
