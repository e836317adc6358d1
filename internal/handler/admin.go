package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/media"
)

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	cs, err := h.Coupons.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "list coupons")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range cs {
			encodeCoupon(e, c)
		}
		e.ArrEnd()
	})
}

func (h *Handler) saveCoupon(w http.ResponseWriter, r *http.Request, id string, create bool) error {
	var req couponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	c := req.coupon(id)
	if !create && req.ValidFrom == nil {
		// An omitted valid_from keeps the stored start.
		cur, err := h.Coupons.Get(r.Context(), id)
		if err != nil {
			return errors.Wrap(err, "get coupon")
		}
		c.ValidFrom = cur.ValidFrom
	}
	c.Normalize()
	if err := c.Check(); err != nil {
		return err
	}

	status := http.StatusOK
	if create {
		status = http.StatusCreated
		if err := h.Coupons.Create(r.Context(), &c); err != nil {
			return errors.Wrap(err, "create coupon")
		}
	} else if err := h.Coupons.Update(r.Context(), &c); err != nil {
		return errors.Wrap(err, "update coupon")
	}
	return writeJSON(w, status, func(e *jx.Encoder) { encodeCoupon(e, c) })
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	return h.saveCoupon(w, r, uuid.NewString(), true)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	return h.saveCoupon(w, r, ps.ByName("id"), false)
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	if err := h.Coupons.Delete(r.Context(), ps.ByName("id")); err != nil {
		return errors.Wrap(err, "delete coupon")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	s, err := h.Settings.Get(r.Context())
	if err != nil {
		return errors.Wrap(err, "get settings")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSettings(e, s) })
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	s, err := h.Settings.Get(r.Context())
	if err != nil {
		return errors.Wrap(err, "get settings")
	}
	s.Apply(req.patch())
	if err := h.Settings.Update(r.Context(), s); err != nil {
		return errors.Wrap(err, "update settings")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSettings(e, s) })
}

// upload stores the multipart "file" field as a product photo or logo.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	kind, err := media.ParseKind(ps.ByName("kind"))
	if err != nil {
		return err
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		return badRequest("multipart field \"file\" is required")
	}
	defer func() { _ = file.Close() }()

	img, err := h.Media.SaveImage(r.Context(), kind, header.Filename, file)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeImage(e, img) })
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	users, err := h.Users.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "list users")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUsers(e, users) })
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	role := auth.Role(req.Role)
	if !role.Valid() {
		return auth.ErrInvalidRole
	}
	if err := h.Users.SetRole(r.Context(), ps.ByName("id"), role); err != nil {
		return errors.Wrap(err, "set role")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
