package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	titleSize   = 18
	sectionSize = 14
	bodySize    = 12
	lineHeight  = 6
)

// Renderer genera el PDF paginado de un Summary.
type Renderer struct {
	// Compress desactivado deja el texto legible en el PDF (útil en tests).
	Compress bool
}

func NewRenderer() *Renderer {
	return &Renderer{Compress: true}
}

// RenderXML es Extract + Render.
func (r *Renderer) RenderXML(raw string) ([]byte, error) {
	s, err := Extract(raw)
	if err != nil {
		return nil, err
	}
	return r.Render(s)
}

// Render escribe las secciones en orden fijo: cabecera, referencia del
// pedido, proveedor, cliente, envío y líneas.
func (r *Renderer) Render(s *Summary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle("Despatch Advice "+s.ID, true)
	pdf.SetCreator("despatch-advice-service", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(format string, args ...interface{}) {
		pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf(format, args...)), "", "L", false)
	}
	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "BU", sectionSize)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", bodySize)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 12, "Despatch Advice Details", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", bodySize)
	text("ID: %s   UUID: %s", s.ID, s.UUID)
	text("Copy Indicator: %s", s.CopyIndicator)
	text("Issue Date: %s", s.IssueDate)
	text("Document Status Code: %s", s.DocumentStatusCode)
	text("Type: %s", s.DespatchAdviceTypeCode)
	if s.Note != "" {
		pdf.Ln(2)
		text("Note: %s", s.Note)
	}

	section("Order Reference")
	text("ID: %s, SalesOrderID: %s", s.OrderRef.ID, s.OrderRef.SalesOrderID)
	text("UUID: %s", s.OrderRef.UUID)
	text("Issue Date: %s", s.OrderRef.IssueDate)

	section("Despatch Supplier Party")
	text("Customer Assigned AccountID: %s", s.Supplier.CustomerAssignedAccountID)
	text("Party Name: %s", s.Supplier.PartyName)

	section("Delivery Customer Party")
	text("Customer Assigned AccountID: %s", s.Customer.CustomerAssignedAccountID)
	text("Supplier Assigned AccountID: %s", s.Customer.SupplierAssignedAccountID)
	text("Party Name: %s", s.Customer.PartyName)

	section("Shipment Details")
	text("Shipment ID: %s", s.Shipment.ID)
	text("Consignment ID: %s", s.Shipment.ConsignmentID)
	text("Delivery Address (Street): %s", s.Shipment.DeliveryStreet)
	text("Delivery Address (City): %s", s.Shipment.DeliveryCity)
	text("Requested Delivery Start: %s", s.Shipment.RequestedDeliveryFrom)
	text("Requested Delivery End: %s", s.Shipment.RequestedDeliveryTo)

	section("Despatch Lines")
	if len(s.Lines) == 0 {
		text("No despatch lines found.")
	}
	for i, l := range s.Lines {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", bodySize)
		text("Line #%d (ID: %s):", i+1, l.ID)
		pdf.SetFont("Helvetica", "", bodySize)
		text("Status: %s", l.Status)
		text("Delivered Qty: %s", withUnit(l.DeliveredQuantity, l.UnitCode))
		text("Backorder Qty: %s", withUnit(l.BackorderQuantity, l.UnitCode))
		if total, ok := l.TotalQuantity(); ok {
			text("Total Qty: %s", withUnit(total, l.UnitCode))
		}
		if l.BackorderReason != "" {
			text("Backorder Reason: %s", l.BackorderReason)
		}
		if l.Note != "" {
			text("Line Note: %s", l.Note)
		}
		text("Item Name: %s", l.ItemName)
		text("Item Description: %s", l.ItemDescription)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func withUnit(qty, unit string) string {
	if qty == "" || unit == "" || qty == notAvailable {
		return qty
	}
	return qty + " " + unit
}
