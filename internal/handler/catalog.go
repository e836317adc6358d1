package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/mabel-naski/internal/domain/category"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/settings"
)

func listParams(r *http.Request) (product.ListParams, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return product.ListParams{}, err
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		return product.ListParams{}, err
	}
	q := r.URL.Query()
	return product.ListParams{
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
		Page:     page,
		PageSize: size,
	}.Normalize(), nil
}

// home loads everything the storefront landing page renders in one round
// trip.
func (h *Handler) home(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	params, err := listParams(r)
	if err != nil {
		return err
	}

	var (
		site       *settings.Settings
		categories []category.Category
		page       *product.Page
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		site, err = h.Settings.Get(ctx)
		return errors.Wrap(err, "get settings")
	})
	g.Go(func() (err error) {
		categories, err = h.Categories.List(ctx)
		return errors.Wrap(err, "list categories")
	})
	g.Go(func() (err error) {
		page, err = h.Products.List(ctx, params)
		return errors.Wrap(err, "list products")
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("settings")
		encodeSettings(e, site)
		e.FieldStart("categories")
		encodeCategories(e, categories)
		e.FieldStart("products")
		encodePage(e, page)
		e.ObjEnd()
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	params, err := listParams(r)
	if err != nil {
		return err
	}
	page, err := h.Products.List(r.Context(), params)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, page) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	p, err := h.Products.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, *p) })
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	p := req.product(uuid.NewString())
	if err := p.Check(); err != nil {
		return err
	}
	if err := h.Products.Create(r.Context(), &p); err != nil {
		return errors.Wrap(err, "create product")
	}
	return writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	p := req.product(ps.ByName("id"))
	if err := p.Check(); err != nil {
		return err
	}
	if err := h.Products.Update(r.Context(), &p); err != nil {
		return errors.Wrap(err, "update product")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	if err := h.Products.Delete(r.Context(), ps.ByName("id")); err != nil {
		return errors.Wrap(err, "delete product")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	cs, err := h.Categories.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "list categories")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCategories(e, cs) })
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest("name is required")
	}
	c := category.Category{ID: uuid.NewString(), Name: name}
	if err := h.Categories.Create(r.Context(), &c); err != nil {
		return errors.Wrap(err, "create category")
	}
	return writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCategory(e, c) })
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	if err := h.Categories.Delete(r.Context(), ps.ByName("id")); err != nil {
		return errors.Wrap(err, "delete category")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
