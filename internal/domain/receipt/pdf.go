package receipt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const (
	pdfWidth    = 80.0
	pdfMargin   = 4.0
	pdfLineH    = 4.5
	pdfQRSize   = 28.0
	pdfFontSize = 8.0
)

// PDF writes an 80mm-wide receipt with a QR code of the order number.
func PDF(w io.Writer, r Receipt) error {
	qr, err := qrcode.Encode(r.OrderNumber, qrcode.Medium, 256)
	if err != nil {
		return errors.Wrap(err, "encode qr")
	}

	rows := 14 + 2*len(r.Lines) + len(r.Footer)
	height := 2*pdfMargin + float64(rows)*pdfLineH + pdfQRSize + pdfLineH

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pdfWidth, Ht: height},
	})
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("Struk "+r.OrderNumber, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	inner := pdfWidth - 2*pdfMargin
	cell := func(text, align string) {
		pdf.CellFormat(inner, pdfLineH, tr(text), "", 1, align, false, 0, "")
	}
	pairCell := func(left, right string) {
		half := inner / 2
		pdf.CellFormat(half, pdfLineH, tr(left), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, pdfLineH, tr(right), "", 1, "R", false, 0, "")
	}
	rule := func() {
		y := pdf.GetY() + pdfLineH/2
		pdf.Line(pdfMargin, y, pdfWidth-pdfMargin, y)
		pdf.Ln(pdfLineH)
	}

	pdf.SetFont("Courier", "B", pdfFontSize+4)
	cell(r.Header.StoreName, "C")
	pdf.SetFont("Courier", "", pdfFontSize)
	for _, s := range []string{r.Header.Tagline, r.Header.Address} {
		if s != "" {
			cell(s, "C")
		}
	}
	if r.Header.Phone != "" {
		cell("Telp: "+r.Header.Phone, "C")
	}
	rule()
	pairCell("No. Transaksi", r.OrderNumber)
	pairCell("Tanggal", r.Date.Format(DateLayout))
	rule()

	for _, l := range r.Lines {
		cell(l.Name, "L")
		pairCell(fmt.Sprintf("  %d x %s", l.Quantity, Number(l.Price)), Number(l.Total))
	}
	rule()

	pairCell("Subtotal", Rupiah(r.Subtotal))
	if r.HasDiscount() {
		pairCell(r.DiscountLabel, "-"+Rupiah(r.Discount))
	}
	pdf.SetFont("Courier", "B", pdfFontSize+1)
	pairCell("TOTAL", Rupiah(r.Total))
	pdf.SetFont("Courier", "", pdfFontSize)
	if r.HasPayment() {
		pairCell("Bayar", Rupiah(r.Payment))
		pairCell("Kembali", Rupiah(r.Change))
	}
	rule()

	for _, s := range r.Footer {
		cell(s, "C")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", (pdfWidth-pdfQRSize)/2, pdf.GetY()+pdfLineH/2, pdfQRSize, pdfQRSize, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "render pdf")
	}
	return nil
}
