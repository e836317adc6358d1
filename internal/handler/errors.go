package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/cart"
	"github.com/xenking/mabel-naski/internal/domain/category"
	"github.com/xenking/mabel-naski/internal/domain/checkout"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/sale"
	"github.com/xenking/mabel-naski/internal/domain/storefront"
	"github.com/xenking/mabel-naski/internal/media"
	"github.com/xenking/mabel-naski/pkg/httpmiddleware"
)

// badRequestError is a malformed request body or parameter.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// couponRejectedError carries an Invalid verdict as an error response.
type couponRejectedError struct {
	verdict coupon.Invalid
}

func (e *couponRejectedError) Error() string { return e.verdict.Message }

// statusOf maps a domain error to an HTTP status and the message shown to the
// user. Unknown errors are internal.
func statusOf(err error) (int, string) {
	var (
		bad       *badRequestError
		saleErr   *sale.Error
		stockErr  *cart.StockError
		shortErr  *order.InsufficientStockError
		rejected  *couponRejectedError
		invalidC  *coupon.InvalidError
		missingP  *storefront.ProductNotFoundError
		invalidQ  *storefront.InvalidQuantityError
		rejection *coupon.RejectionError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.msg
	case errors.As(err, &saleErr):
		switch saleErr.Kind {
		case sale.KindValidation:
			return http.StatusBadRequest, saleErr.Message
		case sale.KindRejected:
			return http.StatusUnprocessableEntity, saleErr.Message
		default:
			return http.StatusBadGateway, saleErr.Message
		}
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, auth.ErrForbidden.Error()
	case errors.As(err, &stockErr):
		return http.StatusUnprocessableEntity, stockErr.Error()
	case errors.As(err, &shortErr):
		return http.StatusUnprocessableEntity, shortErr.Error()
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity, rejected.verdict.Message
	case errors.As(err, &rejection):
		return http.StatusUnprocessableEntity, rejection.Reason.Message()
	case errors.As(err, &missingP):
		return http.StatusUnprocessableEntity, missingP.Error()
	case errors.As(err, &invalidQ):
		return http.StatusBadRequest, invalidQ.Error()
	case errors.As(err, &invalidC):
		return http.StatusBadRequest, invalidC.Error()
	case errors.Is(err, storefront.ErrEmptyItems),
		errors.Is(err, storefront.ErrMissingCustomer),
		errors.Is(err, product.ErrInvalid),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, media.ErrUnknownKind),
		errors.Is(err, media.ErrUnsupportedFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, category.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, checkout.ErrBusy),
		errors.Is(err, checkout.ErrCommitted),
		errors.Is(err, order.ErrNotPending),
		errors.Is(err, coupon.ErrDuplicateCode),
		errors.Is(err, category.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, storefront.ErrNoWhatsApp):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	lg := zctx.From(r.Context())
	if status >= http.StatusInternalServerError {
		lg.Error("Request error", zap.Int("status", status), zap.Error(err))
	} else {
		lg.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, msg)
}
