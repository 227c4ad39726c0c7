package ubl

import (
	"bytes"
	"time"

	"github.com/beevik/etree"

	"despatch-advice-service/internal/model"
)

const (
	DespatchAdviceRoot = "DespatchAdvice"

	nsDespatchAdvice = "urn:oasis:names:specification:ubl:schema:xsd:DespatchAdvice-2"
	nsCBC            = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	nsCAC            = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"

	ublVersionID    = "2.0"
	customizationID = "urn:oasis:names:specification:ubl:xpath:DespatchAdvice-2.0:sbs-1.0-draft"
	profileID       = "bpid:urn:oasis:names:draft:bpss:ubl-2-sbs-despatch-advice-notification-draft"
)

// Valores por defecto cuando ni el usuario ni el pedido aportan el dato.
const (
	DefaultIssueDate         = "2005-06-20"
	DefaultNote              = "sample"
	DefaultUnitCode          = "KGM"
	DefaultBackorderQuantity = "0"
	DefaultBackorderReason   = "No backorder needed"
	DefaultSupplierAccountID = "GT00978567"
	DefaultDeliveryTime      = "10:30:47.0Z"
	DefaultLineID            = "1"
	DefaultSalesOrderLineID  = "A"
	DefaultItemDescription   = "Acme beeswax"
	DefaultItemName          = "beeswax"
	DefaultBuyersItemID      = "6578489"
	DefaultSellersItemID     = "17589683"
)

// Synthesizer genera DespatchAdvice a partir de un pedido ya leído.
// No guarda estado entre llamadas.
type Synthesizer struct {
	Now func() time.Time
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{Now: time.Now}
}

// SynthesizeDespatchAdvice usa el reloj del sistema para la fecha de envío.
func SynthesizeDespatchAdvice(order model.ParsedOrder, ov model.Overrides) string {
	return NewSynthesizer().Synthesize(order, ov)
}

// Synthesize arma el árbol completo y lo serializa en una sola pasada.
// ID y UUID salen siempre del pedido: ov.DespatchID y ov.DespatchUUID se ignoran.
func (s *Synthesizer) Synthesize(order model.ParsedOrder, ov model.Overrides) string {
	now := time.Now
	if s != nil && s.Now != nil {
		now = s.Now
	}

	unitCode := DefaultUnitCode
	if order.OrderLine != nil && order.OrderLine.QuantityUnitCode != "" {
		unitCode = order.OrderLine.QuantityUnitCode
	}
	line := order.OrderLine
	if line == nil {
		line = &model.OrderLine{}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(DespatchAdviceRoot)
	root.CreateAttr("xmlns", nsDespatchAdvice)
	root.CreateAttr("xmlns:cbc", nsCBC)
	root.CreateAttr("xmlns:cac", nsCAC)

	leaf(root, "cbc:UBLVersionID", ublVersionID)
	leaf(root, "cbc:CustomizationID", customizationID)
	leaf(root, "cbc:ProfileID", profileID)
	leaf(root, "cbc:ID", order.OrderID)
	leaf(root, "cbc:CopyIndicator", "false")
	leaf(root, "cbc:UUID", order.OrderUUID)
	leaf(root, "cbc:IssueDate", or(order.OrderIssueDate, DefaultIssueDate))
	leaf(root, "cbc:DocumentStatusCode", "NoStatus")
	leaf(root, "cbc:DespatchAdviceTypeCode", "delivery")
	leaf(root, "cbc:Note", or(order.Note, DefaultNote))

	orderReference(root, order)

	supplier := root.CreateElement("cac:DespatchSupplierParty")
	leaf(supplier, "cbc:CustomerAssignedAccountID", order.SellerAccountID)
	party(supplier, order.SellerName, order.SellerAddress)

	customer := root.CreateElement("cac:DeliveryCustomerParty")
	leaf(customer, "cbc:CustomerAssignedAccountID", order.BuyerAccountID)
	leaf(customer, "cbc:SupplierAssignedAccountID", DefaultSupplierAccountID)
	party(customer, order.BuyerName, order.BuyerAddress)

	shipment := root.CreateElement("cac:Shipment")
	leaf(shipment, "cbc:ID", "1")
	leaf(shipment.CreateElement("cac:Consignment"), "cbc:ID", "1")
	delivery := shipment.CreateElement("cac:Delivery")
	address(delivery.CreateElement("cac:DeliveryAddress"), order.DeliveryAddress)
	period := delivery.CreateElement("cac:RequestedDeliveryPeriod")
	// override > periodo pedido en el Order > hoy
	leaf(period, "cbc:StartDate", or(ov.ShipmentStartDate, or(order.RequestedDeliveryStartDate, now().UTC().Format("2006-01-02"))))
	leaf(period, "cbc:StartTime", DefaultDeliveryTime)
	leaf(period, "cbc:EndDate", or(ov.ShipmentEndDate, order.RequestedDeliveryEndDate))
	leaf(period, "cbc:EndTime", DefaultDeliveryTime)

	despatchLine := root.CreateElement("cac:DespatchLine")
	leaf(despatchLine, "cbc:ID", "1")
	leaf(despatchLine, "cbc:Note", ov.DespatchLineNote)
	leaf(despatchLine, "cbc:LineStatusCode", "NoStatus")
	leaf(despatchLine, "cbc:DeliveredQuantity", ov.DeliveredQuantity).CreateAttr("unitCode", unitCode)
	leaf(despatchLine, "cbc:BackorderQuantity", or(ov.BackorderQuantity, DefaultBackorderQuantity)).CreateAttr("unitCode", unitCode)
	leaf(despatchLine, "cbc:BackorderReason", or(ov.BackorderReason, DefaultBackorderReason))

	lineRef := despatchLine.CreateElement("cac:OrderLineReference")
	leaf(lineRef, "cbc:LineID", or(line.LineID, DefaultLineID))
	leaf(lineRef, "cbc:SalesOrderLineID", or(line.SalesOrderLineID, DefaultSalesOrderLineID))
	orderReference(lineRef, order)

	item := despatchLine.CreateElement("cac:Item")
	leaf(item, "cbc:Description", or(line.ItemDescription, DefaultItemDescription))
	leaf(item, "cbc:Name", or(line.ItemName, DefaultItemName))
	leaf(item.CreateElement("cac:BuyersItemIdentification"), "cbc:ID", or(line.BuyersItemID, DefaultBuyersItemID))
	leaf(item.CreateElement("cac:SellersItemIdentification"), "cbc:ID", or(line.SellersItemID, DefaultSellersItemID))
	lot := item.CreateElement("cac:ItemInstance").CreateElement("cac:LotIdentification")
	leaf(lot, "cbc:LotNumberID", ov.LotNumberID)
	leaf(lot, "cbc:ExpiryDate", ov.LotExpiryDate)

	doc.Indent(2)
	var buf bytes.Buffer
	// bytes.Buffer no devuelve errores de escritura.
	_, _ = doc.WriteTo(&buf)
	return buf.String()
}

// orderReference se emite dos veces: en la cabecera y dentro de la línea.
func orderReference(parent *etree.Element, order model.ParsedOrder) {
	ref := parent.CreateElement("cac:OrderReference")
	leaf(ref, "cbc:ID", order.OrderID)
	leaf(ref, "cbc:SalesOrderID", order.SalesOrderID)
	leaf(ref, "cbc:UUID", order.OrderUUID)
	leaf(ref, "cbc:IssueDate", order.OrderIssueDate)
}

func party(parent *etree.Element, name string, addr *model.PostalAddress) {
	p := parent.CreateElement("cac:Party")
	leaf(p.CreateElement("cac:PartyName"), "cbc:Name", name)
	address(p.CreateElement("cac:PostalAddress"), addr)
}

// address rellena un nodo de dirección; con addr nil todas las hojas quedan vacías.
func address(node *etree.Element, addr *model.PostalAddress) {
	if addr == nil {
		addr = &model.PostalAddress{}
	}
	leaf(node, "cbc:StreetName", addr.StreetName)
	leaf(node, "cbc:BuildingName", addr.BuildingName)
	leaf(node, "cbc:BuildingNumber", addr.BuildingNumber)
	leaf(node, "cbc:CityName", addr.CityName)
	leaf(node, "cbc:PostalZone", addr.PostalZone)
	leaf(node, "cbc:CountrySubentity", addr.CountrySubentity)
	leaf(node.CreateElement("cac:AddressLine"), "cbc:Line", addr.AddressLine)
	leaf(node.CreateElement("cac:Country"), "cbc:IdentificationCode", addr.CountryCode)
}

// leaf crea la hoja aunque text sea "": el esquema destino no es disperso.
func leaf(parent *etree.Element, tag, text string) *etree.Element {
	e := parent.CreateElement(tag)
	e.SetText(text)
	return e
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
