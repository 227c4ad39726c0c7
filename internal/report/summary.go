// Package report convierte un DespatchAdvice guardado en un PDF legible.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/xmlpath.v2"

	"despatch-advice-service/internal/ubl"
)

const notAvailable = "N/A"

// Summary son los datos del DespatchAdvice que aparecen en el informe.
type Summary struct {
	ID                     string
	UUID                   string
	CopyIndicator          string
	IssueDate              string
	DocumentStatusCode     string
	DespatchAdviceTypeCode string
	Note                   string

	OrderRef struct {
		ID           string
		SalesOrderID string
		UUID         string
		IssueDate    string
	}

	Supplier struct {
		CustomerAssignedAccountID string
		PartyName                 string
	}

	Customer struct {
		CustomerAssignedAccountID string
		SupplierAssignedAccountID string
		PartyName                 string
	}

	Shipment struct {
		ID                    string
		ConsignmentID         string
		DeliveryStreet        string
		DeliveryCity          string
		RequestedDeliveryFrom string
		RequestedDeliveryTo   string
	}

	Lines []LineSummary
}

type LineSummary struct {
	ID                string
	Note              string
	Status            string
	DeliveredQuantity string
	BackorderQuantity string
	UnitCode          string
	BackorderReason   string
	ItemName          string
	ItemDescription   string
}

// TotalQuantity suma entregado + pendiente. Devuelve false si alguno no es numérico.
func (l LineSummary) TotalQuantity() (string, bool) {
	delivered, err := decimal.NewFromString(l.DeliveredQuantity)
	if err != nil {
		return "", false
	}
	backorder, err := decimal.NewFromString(l.BackorderQuantity)
	if err != nil {
		return "", false
	}
	return delivered.Add(backorder).String(), true
}

var (
	idPath            = xmlpath.MustCompile("ID")
	uuidPath          = xmlpath.MustCompile("UUID")
	copyIndicatorPath = xmlpath.MustCompile("CopyIndicator")
	issueDatePath     = xmlpath.MustCompile("IssueDate")
	docStatusPath     = xmlpath.MustCompile("DocumentStatusCode")
	typeCodePath      = xmlpath.MustCompile("DespatchAdviceTypeCode")
	notePath          = xmlpath.MustCompile("Note")
	salesOrderIDPath  = xmlpath.MustCompile("SalesOrderID")

	orderRefPath     = xmlpath.MustCompile("OrderReference")
	supplierPath     = xmlpath.MustCompile("DespatchSupplierParty")
	customerPath     = xmlpath.MustCompile("DeliveryCustomerParty")
	customerAcctPath = xmlpath.MustCompile("CustomerAssignedAccountID")
	supplierAcctPath = xmlpath.MustCompile("SupplierAssignedAccountID")
	partyNamePath    = xmlpath.MustCompile("Party/PartyName/Name")

	shipmentPath      = xmlpath.MustCompile("Shipment")
	consignmentIDPath = xmlpath.MustCompile("Consignment/ID")
	streetPath        = xmlpath.MustCompile("Delivery/DeliveryAddress/StreetName")
	cityPath          = xmlpath.MustCompile("Delivery/DeliveryAddress/CityName")
	startDatePath     = xmlpath.MustCompile("Delivery/RequestedDeliveryPeriod/StartDate")
	endDatePath       = xmlpath.MustCompile("Delivery/RequestedDeliveryPeriod/EndDate")

	linePath            = xmlpath.MustCompile("DespatchLine")
	lineStatusPath      = xmlpath.MustCompile("LineStatusCode")
	deliveredPath       = xmlpath.MustCompile("DeliveredQuantity")
	deliveredUnitPath   = xmlpath.MustCompile("DeliveredQuantity/@unitCode")
	backorderPath       = xmlpath.MustCompile("BackorderQuantity")
	backorderReasonPath = xmlpath.MustCompile("BackorderReason")
	itemNamePath        = xmlpath.MustCompile("Item/Name")
	itemDescPath        = xmlpath.MustCompile("Item/Description")
)

// Extract lee un DespatchAdvice. Falla sólo si el XML no es válido o la
// raíz no es <DespatchAdvice>.
func Extract(raw string) (*Summary, error) {
	root, err := ubl.ParseTree(raw, ubl.DespatchAdviceRoot)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		ID:                     ubl.TextOr(root, idPath, notAvailable),
		UUID:                   ubl.TextOr(root, uuidPath, notAvailable),
		CopyIndicator:          ubl.TextOr(root, copyIndicatorPath, notAvailable),
		IssueDate:              ubl.TextOr(root, issueDatePath, notAvailable),
		DocumentStatusCode:     ubl.TextOr(root, docStatusPath, notAvailable),
		DespatchAdviceTypeCode: ubl.TextOr(root, typeCodePath, notAvailable),
		Note:                   ubl.Text(root, notePath),
	}

	ref := ubl.First(root, orderRefPath)
	s.OrderRef.ID = ubl.TextOr(ref, idPath, notAvailable)
	s.OrderRef.SalesOrderID = ubl.TextOr(ref, salesOrderIDPath, notAvailable)
	s.OrderRef.UUID = ubl.TextOr(ref, uuidPath, notAvailable)
	s.OrderRef.IssueDate = ubl.TextOr(ref, issueDatePath, notAvailable)

	supplier := ubl.First(root, supplierPath)
	s.Supplier.CustomerAssignedAccountID = ubl.TextOr(supplier, customerAcctPath, notAvailable)
	s.Supplier.PartyName = ubl.TextOr(supplier, partyNamePath, notAvailable)

	customer := ubl.First(root, customerPath)
	s.Customer.CustomerAssignedAccountID = ubl.TextOr(customer, customerAcctPath, notAvailable)
	s.Customer.SupplierAssignedAccountID = ubl.TextOr(customer, supplierAcctPath, notAvailable)
	s.Customer.PartyName = ubl.TextOr(customer, partyNamePath, notAvailable)

	shipment := ubl.First(root, shipmentPath)
	s.Shipment.ID = ubl.TextOr(shipment, idPath, notAvailable)
	s.Shipment.ConsignmentID = ubl.TextOr(shipment, consignmentIDPath, notAvailable)
	s.Shipment.DeliveryStreet = ubl.TextOr(shipment, streetPath, notAvailable)
	s.Shipment.DeliveryCity = ubl.TextOr(shipment, cityPath, notAvailable)
	s.Shipment.RequestedDeliveryFrom = ubl.TextOr(shipment, startDatePath, notAvailable)
	s.Shipment.RequestedDeliveryTo = ubl.TextOr(shipment, endDatePath, notAvailable)

	for i, line := range ubl.Nodes(root, linePath) {
		s.Lines = append(s.Lines, LineSummary{
			ID:                ubl.TextOr(line, idPath, fmt.Sprintf("Line %d", i+1)),
			Note:              ubl.Text(line, notePath),
			Status:            ubl.TextOr(line, lineStatusPath, notAvailable),
			DeliveredQuantity: ubl.TextOr(line, deliveredPath, notAvailable),
			UnitCode:          ubl.Text(line, deliveredUnitPath),
			BackorderQuantity: ubl.TextOr(line, backorderPath, "0"),
			BackorderReason:   ubl.Text(line, backorderReasonPath),
			ItemName:          ubl.TextOr(line, itemNamePath, notAvailable),
			ItemDescription:   ubl.Text(line, itemDescPath),
		})
	}

	return s, nil
}
