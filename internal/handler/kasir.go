package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/julienschmidt/httprouter"

	"github.com/xenking/mabel-naski/internal/domain/checkout"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/product"
)

func (h *Handler) session(r *http.Request, ps httprouter.Params) (*checkout.Session, error) {
	return h.Sessions.Get(ps.ByName("id"), actor(r))
}

func writeSession(w http.ResponseWriter, status int, s *checkout.Session) error {
	v := s.View()
	return writeJSON(w, status, func(e *jx.Encoder) { encodeSession(e, v) })
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	return writeSession(w, http.StatusCreated, h.Sessions.Create(actor(r)))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, s)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	if err := h.Sessions.Delete(ps.ByName("id"), actor(r)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// addItem adds one unit of a product. The product is read uncached so the
// stock ceiling is current.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.ProductID == "" {
		return badRequest("product_id is required")
	}
	found, err := h.Products.GetByIDs(r.Context(), []string{req.ProductID})
	if err != nil {
		return errors.Wrap(err, "get product")
	}
	if len(found) == 0 {
		return product.ErrNotFound
	}
	if err := s.AddProduct(found[0]); err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, s)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if err := s.SetQuantity(ps.ByName("product"), req.Quantity); err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, s)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	if err := s.RemoveLine(ps.ByName("product")); err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, s)
}

// applyCoupon answers 200 with the verdict and session for a valid coupon
// and 422 with the verdict message otherwise.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	var req couponCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	verdict, err := s.ApplyCoupon(r.Context(), h.Validator, req.Code)
	if err != nil {
		return err
	}
	if invalid, ok := verdict.(coupon.Invalid); ok {
		return &couponRejectedError{verdict: invalid}
	}
	v := s.View()
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("verdict")
		encodeVerdict(e, verdict)
		e.FieldStart("session")
		encodeSession(e, v)
		e.ObjEnd()
	})
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	if err := s.RemoveCoupon(); err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, s)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	var req commitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if _, err := s.Commit(r.Context(), h.Sales, req.Payment); err != nil {
		return err
	}
	return writeSession(w, http.StatusCreated, s)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	s, err := h.session(r, ps)
	if err != nil {
		return err
	}
	if err := s.Reset(); err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, s)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	orders, err := h.History.LoadToday(r.Context())
	if err != nil {
		return errors.Wrap(err, "load history")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}
