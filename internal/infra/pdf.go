package infra

// pdf.go renders an A5 warranty certificate for a live sale with go-pdf/fpdf:
// header, unit identification, seller, warranty window and a footer with the
// replacement lineage when the sold unit is itself a replacement.

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// WarrantyCertificate is the data printed on a certificate.
type WarrantyCertificate struct {
	SaleID         string
	ProductName    string
	Category       string
	SerialNumber   string
	Barcode        string
	Motor          string
	SellerName     string
	SoldBy         string
	WarrantyPeriod string
	WarrantyStart  time.Time
	WarrantyEnd    time.Time
	ReplacesSerial string // empty unless the unit replaced another
	IssuedAt       time.Time
}

// WriteWarrantyCertificatePDF renders the certificate into w.
func WriteWarrantyCertificatePDF(w io.Writer, c WarrantyCertificate) error {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Warranty Certificate", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sale "+c.SaleID, "", 1, "C", false, 0, "")
	pdf.Ln(3)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	labelW := contentW * 0.35
	valueW := contentW - labelW
	row := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(valueW, 6, value, "", 1, "L", false, 0, "")
	}

	row("Product", c.ProductName)
	row("Category", c.Category)
	row("Serial number", c.SerialNumber)
	row("Barcode", c.Barcode)
	row("Motor", c.Motor)
	pdf.Ln(2)
	row("Sold by", fmt.Sprintf("%s (%s)", c.SellerName, c.SoldBy))
	row("Warranty", c.WarrantyPeriod)
	row("Valid from", c.WarrantyStart.Format("02 Jan 2006"))
	row("Valid until", c.WarrantyEnd.Format("02 Jan 2006"))

	if c.ReplacesSerial != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, fmt.Sprintf(
			"This unit replaces serial %s. The original warranty window is carried forward unchanged.",
			c.ReplacesSerial), "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Issued "+c.IssuedAt.Format(time.RFC1123), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: render certificate: %w", err)
	}
	return pdf.Output(w)
}
