package invoices

import (
	"bytes"
	"fmt"

	"vendia/models"
	"vendia/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// RenderPDF lays out a printable invoice with a QR code carrying the
// invoice reference for support lookups.
func RenderPDF(inv *models.Invoice) ([]byte, error) {
	qrPNG, err := qrcode.Encode(inv.InvoiceID, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice: %s", inv.InvoiceID))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Order: %s", inv.OrderID))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Billed to: %s <%s>", inv.CustomerName, inv.CustomerEmail))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Issued: %s", inv.IssuedAt.Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(80, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, line := range inv.Lines {
		pdf.CellFormat(80, 8, line.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, utils.FormatMinor(line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, utils.FormatMinor(line.Subtotal), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(135, 8, "Total "+inv.Currency, "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, utils.FormatMinor(inv.Total), "1", 1, "R", false, 0, "")

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 10, 35, 35, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
