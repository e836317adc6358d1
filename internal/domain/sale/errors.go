package sale

import "github.com/go-faster/errors"

// Kind classifies a commit failure.
type Kind int

const (
	// KindValidation is a local precondition failure; nothing was sent to
	// the stock processor.
	KindValidation Kind = iota + 1
	// KindRejected is a refusal by the stock processor, for example
	// insufficient stock. Nothing was changed.
	KindRejected
	// KindTransport is an unexpected failure. The caller must assume the sale
	// was not committed.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is returned by Service.Commit. Message is shown to the operator
// verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a commit error, or zero if err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Operator-facing messages.
const (
	msgEmptyCart        = "Keranjang kosong. Tambahkan produk terlebih dahulu"
	msgInvalidQuantity  = "Jumlah produk tidak valid"
	msgInvalidPayment   = "Masukkan jumlah pembayaran yang valid"
	msgInvalidDiscount  = "Diskon tidak valid"
	msgSubtotalMismatch = "Subtotal tidak sesuai dengan isi keranjang"
	msgPaymentShort     = "Pembayaran kurang dari total belanja"
	msgTransport        = "Terjadi kesalahan, transaksi tidak diproses"
)
