package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/receipt"
	"github.com/xenking/mabel-naski/internal/domain/storefront"
)

func (h *Handler) checkoutWhatsApp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	sreq := storefront.Request{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Lines:         make([]storefront.LineRequest, len(req.Items)),
	}
	for i, it := range req.Items {
		sreq.Lines[i] = storefront.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	res, err := h.Storefront.Checkout(r.Context(), sreq)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order")
		encodeOrder(e, res.Order)
		e.FieldStart("message")
		e.Str(res.Message)
		e.FieldStart("whatsapp_url")
		e.Str(res.WhatsAppURL)
		e.ObjEnd()
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return err
	}
	params := order.ListParams{Status: order.Status(r.URL.Query().Get("status")), Limit: limit}
	if params.Status != "" && !params.Status.Valid() {
		return badRequest("invalid status")
	}
	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return badRequest("invalid since, expected RFC 3339")
		}
		params.Since = t
	}

	orders, err := h.Orders.List(r.Context(), params)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	o, err := h.Storefront.Confirm(r.Context(), actor(r), ps.ByName("id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// receiptFor loads the order and the store header. A settings failure falls
// back to the default header so a receipt can always be printed.
func (h *Handler) receiptFor(r *http.Request, ps httprouter.Params) (receipt.Receipt, error) {
	o, err := h.Orders.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		return receipt.Receipt{}, err
	}
	header := receipt.DefaultHeader
	if site, err := h.Settings.Get(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Receipt header from settings", zap.Error(err))
	} else {
		header = site.ReceiptHeader()
	}
	return receipt.FromOrder(o, header, h.loc), nil
}

func (h *Handler) receiptText(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	rc, err := h.receiptFor(r, ps)
	if err != nil {
		return err
	}
	width, err := queryInt(r, "width")
	if err != nil {
		return err
	}
	switch {
	case width == 0:
		width = h.receiptWidth
	case width < receipt.MinWidth || width > receipt.MaxWidth:
		return badRequest(fmt.Sprintf("width must be between %d and %d", receipt.MinWidth, receipt.MaxWidth))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = w.Write([]byte(rc.Text(width)))
	return err
}

func (h *Handler) receiptPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	rc, err := h.receiptFor(r, ps)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := receipt.PDF(&buf, rc); err != nil {
		return errors.Wrap(err, "render receipt")
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+rc.OrderNumber+`.pdf"`)
	_, err = buf.WriteTo(w)
	return err
}
