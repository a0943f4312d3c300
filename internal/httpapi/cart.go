package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
)

var (
	errItemNotFound = errors.New("cart item not found")
	errOutOfStock   = errors.New("product is out of stock")
)

type CartView struct {
	cart.Cart
	ItemCount int `json:"item_count"`
	// CouponValid is false for a stored code that carries no discount.
	CouponValid          bool     `json:"coupon_valid"`
	MissingPrescriptions []string `json:"missing_prescriptions"`
}

func (s *Server) viewOf(c cart.Cart) CartView {
	_, valid := s.Carts.Pricing().CouponRate(c.CouponCode)
	missing := []string{}
	for _, it := range c.MissingPrescriptions() {
		missing = append(missing, it.ID)
	}
	return CartView{Cart: c, ItemCount: c.ItemCount(), CouponValid: valid, MissingPrescriptions: missing}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseFilters(r *http.Request) (catalog.Filters, error) {
	q := r.URL.Query()
	f := catalog.Filters{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Sort:     catalog.Sort(q.Get("sort")),
	}
	if v := q.Get("prescription"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, badRequest("prescription must be true or false")
		}
		f.Prescription = &b
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, badRequest("in_stock must be true or false")
		}
		f.InStockOnly = b
	}
	for name, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if v := q.Get(name); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return f, badRequest("%s must be a number", name)
			}
			*dst = &d
		}
	}
	for name, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, badRequest("%s must be an integer", name)
			}
			*dst = n
		}
	}
	return f, nil
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.Catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.Carts.Lookup(s.session(w, r))
	if !ok {
		writeJSON(w, http.StatusOK, s.viewOf(cart.Empty()))
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(store.Snapshot()))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	store := s.Carts.Get(s.session(w, r))
	writeJSON(w, http.StatusOK, s.viewOf(store.Clear()))
}

type addItemRequest struct {
	ProductID        string `json:"product_id"`
	Quantity         *int   `json:"quantity"`
	PrescriptionFile string `json:"prescription_file"`
	Notes            string `json:"notes"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	sessionID := s.session(w, r)
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		s.writeError(w, r, cart.ErrProductRequired)
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), productID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !p.InStock() {
		s.writeError(w, r, errOutOfStock)
		return
	}
	cp := catalog.ToCartProduct(p)
	if err := cart.ValidateAdd(cp, qty); err != nil {
		s.writeError(w, r, err)
		return
	}

	c := s.Carts.Get(sessionID).AddItem(cp, qty, strings.TrimSpace(req.PrescriptionFile), req.Notes)
	writeJSON(w, http.StatusOK, s.viewOf(c))
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	store, itemID, ok := s.existingItem(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		s.writeError(w, r, badRequest("quantity must be zero or more"))
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(store.UpdateQuantity(itemID, *req.Quantity)))
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	store, itemID, ok := s.existingItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(store.RemoveItem(itemID)))
}

type prescriptionRequest struct {
	File string `json:"file"`
}

func (s *Server) attachPrescription(w http.ResponseWriter, r *http.Request) {
	store, itemID, ok := s.existingItem(w, r)
	if !ok {
		return
	}
	var req prescriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	file := strings.TrimSpace(req.File)
	if file == "" {
		s.writeError(w, r, badRequest("file is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(store.AttachPrescription(itemID, file)))
}

// existingItem resolves the {id} path segment against the session's cart and
// answers 404 when the line is not there.
func (s *Server) existingItem(w http.ResponseWriter, r *http.Request) (*cart.Store, string, bool) {
	store := s.Carts.Get(s.session(w, r))
	itemID := r.PathValue("id")
	if _, ok := store.Snapshot().FindItem(itemID); !ok {
		s.writeError(w, r, errItemNotFound)
		return nil, "", false
	}
	return store, itemID, true
}

type couponRequest struct {
	Code string `json:"code"`
}

func (s *Server) applyCoupon(w http.ResponseWriter, r *http.Request) {
	store := s.Carts.Get(s.session(w, r))
	var req couponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		s.writeError(w, r, badRequest("code is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(store.ApplyCoupon(req.Code)))
}

func (s *Server) removeCoupon(w http.ResponseWriter, r *http.Request) {
	store := s.Carts.Get(s.session(w, r))
	writeJSON(w, http.StatusOK, s.viewOf(store.RemoveCoupon()))
}

func (s *Server) visibility(cmd cart.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := s.Carts.Get(s.session(w, r))
		writeJSON(w, http.StatusOK, s.viewOf(store.Dispatch(cmd)))
	}
}
