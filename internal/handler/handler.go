// Package handler exposes the storefront, cashier and back-office HTTP API.
package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/category"
	"github.com/xenking/mabel-naski/internal/domain/checkout"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/settings"
	"github.com/xenking/mabel-naski/internal/domain/storefront"
	"github.com/xenking/mabel-naski/internal/media"
	"github.com/xenking/mabel-naski/pkg/httpmiddleware"
)

// Authenticator resolves a bearer token to an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Actor, error)
}

// ImageStore persists uploaded images.
type ImageStore interface {
	SaveImage(ctx context.Context, kind media.Kind, filename string, r io.Reader) (*media.Image, error)
}

// Storefront places and confirms customer orders.
type Storefront interface {
	Checkout(ctx context.Context, req storefront.Request) (*storefront.Result, error)
	Confirm(ctx context.Context, actor auth.Actor, id string) (*order.Order, error)
}

// HistoryReader returns the cashier's transactions of the current day.
type HistoryReader interface {
	LoadToday(ctx context.Context) ([]order.Order, error)
}

// Deps are the services behind the API.
type Deps struct {
	Auth       Authenticator
	Products   product.Store
	Categories category.Repository
	Coupons    coupon.Store
	Validator  coupon.Validator
	Orders     order.Repository
	History    HistoryReader
	Sales      checkout.Committer
	Sessions   *checkout.Registry
	Storefront Storefront
	Settings   settings.Repository
	Users      auth.UserRepository
	Media      ImageStore
}

// Config holds presentation settings.
type Config struct {
	// Location is the store time zone used on receipts.
	Location *time.Location
	// ReceiptWidth is the column count of text receipts.
	ReceiptWidth int
	// MaxUploadBytes bounds multipart upload bodies.
	MaxUploadBytes int64
}

// Handler serves the HTTP API.
type Handler struct {
	Deps
	loc          *time.Location
	receiptWidth int
	maxUpload    int64
}

// New creates a Handler.
func New(cfg Config, deps Deps) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = media.DefaultMaxBytes + 1<<20
	}
	return &Handler{
		Deps:         deps,
		loc:          cfg.Location,
		receiptWidth: cfg.ReceiptWidth,
		maxUpload:    cfg.MaxUploadBytes,
	}
}

// handle is an endpoint that reports failures as errors; serve maps them to
// responses.
type handle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error

// Router registers every route.
func (h *Handler) Router() *httprouter.Router {
	rt := httprouter.New()
	rt.HandleMethodNotAllowed = true
	rt.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "not found")
	})
	rt.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Storefront.
	h.public(rt, http.MethodGet, "/api/home", h.home)
	h.public(rt, http.MethodGet, "/api/products", h.listProducts)
	h.public(rt, http.MethodGet, "/api/products/:id", h.getProduct)
	h.public(rt, http.MethodGet, "/api/categories", h.listCategories)
	h.public(rt, http.MethodGet, "/api/settings", h.getSettings)
	h.public(rt, http.MethodPost, "/api/checkout/whatsapp", h.checkoutWhatsApp)

	// Cashier.
	h.restricted(rt, auth.AreaCashier, http.MethodPost, "/api/kasir/sessions", h.createSession)
	h.restricted(rt, auth.AreaCashier, http.MethodGet, "/api/kasir/sessions/:id", h.getSession)
	h.restricted(rt, auth.AreaCashier, http.MethodDelete, "/api/kasir/sessions/:id", h.deleteSession)
	h.restricted(rt, auth.AreaCashier, http.MethodPost, "/api/kasir/sessions/:id/items", h.addItem)
	h.restricted(rt, auth.AreaCashier, http.MethodPut, "/api/kasir/sessions/:id/items/:product", h.setQuantity)
	h.restricted(rt, auth.AreaCashier, http.MethodDelete, "/api/kasir/sessions/:id/items/:product", h.removeItem)
	h.restricted(rt, auth.AreaCashier, http.MethodPost, "/api/kasir/sessions/:id/coupon", h.applyCoupon)
	h.restricted(rt, auth.AreaCashier, http.MethodDelete, "/api/kasir/sessions/:id/coupon", h.removeCoupon)
	h.restricted(rt, auth.AreaCashier, http.MethodPost, "/api/kasir/sessions/:id/commit", h.commit)
	h.restricted(rt, auth.AreaCashier, http.MethodPost, "/api/kasir/sessions/:id/reset", h.reset)
	h.restricted(rt, auth.AreaCashier, http.MethodGet, "/api/kasir/history", h.history)
	h.restricted(rt, auth.AreaCashier, http.MethodGet, "/api/orders/:id/receipt", h.receiptText)
	h.restricted(rt, auth.AreaCashier, http.MethodGet, "/api/orders/:id/receipt.pdf", h.receiptPDF)

	// Back office.
	h.restricted(rt, auth.AreaBackOffice, http.MethodPost, "/api/products", h.createProduct)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPut, "/api/products/:id", h.updateProduct)
	h.restricted(rt, auth.AreaBackOffice, http.MethodDelete, "/api/products/:id", h.deleteProduct)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPost, "/api/categories", h.createCategory)
	h.restricted(rt, auth.AreaBackOffice, http.MethodDelete, "/api/categories/:id", h.deleteCategory)
	h.restricted(rt, auth.AreaBackOffice, http.MethodGet, "/api/coupons", h.listCoupons)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPost, "/api/coupons", h.createCoupon)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPut, "/api/coupons/:id", h.updateCoupon)
	h.restricted(rt, auth.AreaBackOffice, http.MethodDelete, "/api/coupons/:id", h.deleteCoupon)
	h.restricted(rt, auth.AreaBackOffice, http.MethodGet, "/api/orders", h.listOrders)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPost, "/api/orders/:id/confirm", h.confirmOrder)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPut, "/api/settings", h.updateSettings)
	h.restricted(rt, auth.AreaBackOffice, http.MethodPost, "/api/uploads/:kind", h.upload)

	// User management.
	h.restricted(rt, auth.AreaUsers, http.MethodGet, "/api/users", h.listUsers)
	h.restricted(rt, auth.AreaUsers, http.MethodPut, "/api/users/:id/role", h.setRole)

	return rt
}

func (h *Handler) public(rt *httprouter.Router, method, pattern string, fn handle) {
	rt.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		httpmiddleware.SetRoute(r.Context(), pattern)
		h.serve(w, r, ps, fn)
	})
}

// restricted authenticates the caller, checks the area and stores the actor
// in the request context.
func (h *Handler) restricted(rt *httprouter.Router, area auth.Area, method, pattern string, fn handle) {
	rt.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		httpmiddleware.SetRoute(r.Context(), pattern)
		h.serve(w, r, ps, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
			token, ok := auth.ParseBearer(r.Header.Get("Authorization"))
			if !ok {
				return auth.ErrUnauthenticated
			}
			actor, err := h.Auth.Authenticate(r.Context(), token)
			if err != nil {
				return err
			}
			if err := actor.Require(area); err != nil {
				return err
			}
			return fn(w, r.WithContext(auth.WithActor(r.Context(), actor)), ps)
		})
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, ps httprouter.Params, fn handle) {
	if err := fn(w, r, ps); err != nil {
		h.writeError(w, r, err)
	}
}

// actor returns the caller stored by restricted.
func actor(r *http.Request) auth.Actor {
	a, _ := auth.FromContext(r.Context())
	return a
}
