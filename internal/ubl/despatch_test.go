package ubl

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despatch-advice-service/internal/model"
)

func fixedSynthesizer() *Synthesizer {
	return &Synthesizer{Now: func() time.Time {
		return time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	}}
}

func parseDespatch(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	root := doc.Root()
	require.NotNil(t, root)
	require.Equal(t, "DespatchAdvice", root.Tag)
	return root
}

func textAt(t *testing.T, root *etree.Element, path string) string {
	t.Helper()
	el := root.FindElement(path)
	require.NotNil(t, el, "missing element %s", path)
	return el.Text()
}

func childTags(el *etree.Element) []string {
	var tags []string
	for _, c := range el.ChildElements() {
		tags = append(tags, c.FullTag())
	}
	return tags
}

func fullOrder(t *testing.T) model.ParsedOrder {
	order, err := ExtractOrder(readTestdata(t, "order.xml"))
	require.NoError(t, err)
	return *order
}

func TestSynthesize_EndToEndMinimalOrder(t *testing.T) {
	order, err := ExtractOrder(minimalOrderXML)
	require.NoError(t, err)

	out := fixedSynthesizer().Synthesize(*order, model.Overrides{})
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))

	root := parseDespatch(t, out)
	assert.Equal(t, "AEG012345", textAt(t, root, "cbc:ID"))
	assert.Equal(t, "6E09886B-DC6E-439F-82D1-7CCAC7F4E3B1", textAt(t, root, "cbc:UUID"))
	assert.Equal(t, "2005-06-20", textAt(t, root, "cbc:IssueDate"))
	assert.Equal(t, "sample", textAt(t, root, "cbc:Note"))
	assert.Equal(t, "No backorder needed", textAt(t, root, "cac:DespatchLine/cbc:BackorderReason"))
	assert.Equal(t, "0", textAt(t, root, "cac:DespatchLine/cbc:BackorderQuantity"))

	delivered := root.FindElement("cac:DespatchLine/cbc:DeliveredQuantity")
	require.NotNil(t, delivered)
	assert.Equal(t, "KGM", delivered.SelectAttrValue("unitCode", ""))
	assert.Equal(t, "", delivered.Text())

	assert.Equal(t, "2024-03-15", textAt(t, root, "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/cbc:StartDate"))
}

func TestSynthesize_Namespaces(t *testing.T) {
	root := parseDespatch(t, fixedSynthesizer().Synthesize(model.ParsedOrder{}, model.Overrides{}))

	assert.Equal(t, nsDespatchAdvice, root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, nsCBC, root.SelectAttrValue("xmlns:cbc", ""))
	assert.Equal(t, nsCAC, root.SelectAttrValue("xmlns:cac", ""))
}

func TestSynthesize_ElementOrder(t *testing.T) {
	root := parseDespatch(t, fixedSynthesizer().Synthesize(fullOrder(t), model.Overrides{}))

	assert.Equal(t, []string{
		"cbc:UBLVersionID",
		"cbc:CustomizationID",
		"cbc:ProfileID",
		"cbc:ID",
		"cbc:CopyIndicator",
		"cbc:UUID",
		"cbc:IssueDate",
		"cbc:DocumentStatusCode",
		"cbc:DespatchAdviceTypeCode",
		"cbc:Note",
		"cac:OrderReference",
		"cac:DespatchSupplierParty",
		"cac:DeliveryCustomerParty",
		"cac:Shipment",
		"cac:DespatchLine",
	}, childTags(root))

	assert.Equal(t, []string{
		"cbc:CustomerAssignedAccountID",
		"cbc:SupplierAssignedAccountID",
		"cac:Party",
	}, childTags(root.FindElement("cac:DeliveryCustomerParty")))

	assert.Equal(t, []string{
		"cbc:StreetName",
		"cbc:BuildingName",
		"cbc:BuildingNumber",
		"cbc:CityName",
		"cbc:PostalZone",
		"cbc:CountrySubentity",
		"cac:AddressLine",
		"cac:Country",
	}, childTags(root.FindElement("cac:Shipment/cac:Delivery/cac:DeliveryAddress")))

	assert.Equal(t, []string{
		"cbc:StartDate",
		"cbc:StartTime",
		"cbc:EndDate",
		"cbc:EndTime",
	}, childTags(root.FindElement("cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod")))

	assert.Equal(t, []string{
		"cbc:ID",
		"cbc:Note",
		"cbc:LineStatusCode",
		"cbc:DeliveredQuantity",
		"cbc:BackorderQuantity",
		"cbc:BackorderReason",
		"cac:OrderLineReference",
		"cac:Item",
	}, childTags(root.FindElement("cac:DespatchLine")))

	assert.Equal(t, []string{
		"cbc:Description",
		"cbc:Name",
		"cac:BuyersItemIdentification",
		"cac:SellersItemIdentification",
		"cac:ItemInstance",
	}, childTags(root.FindElement("cac:DespatchLine/cac:Item")))
}

func TestSynthesize_IdentifiersIgnoreOverrides(t *testing.T) {
	order := model.ParsedOrder{OrderID: "X-1", OrderUUID: "U-1"}
	ov := model.Overrides{DespatchID: "OTHER", DespatchUUID: "OTHER-UUID"}

	out := fixedSynthesizer().Synthesize(order, ov)
	root := parseDespatch(t, out)

	assert.Equal(t, "X-1", textAt(t, root, "cbc:ID"))
	assert.Equal(t, "U-1", textAt(t, root, "cbc:UUID"))
	assert.NotContains(t, out, "OTHER")
}

func TestSynthesize_OrderReferenceIsRepeated(t *testing.T) {
	order := fullOrder(t)
	root := parseDespatch(t, fixedSynthesizer().Synthesize(order, model.Overrides{}))

	for _, base := range []string{"cac:OrderReference", "cac:DespatchLine/cac:OrderLineReference/cac:OrderReference"} {
		assert.Equal(t, order.OrderID, textAt(t, root, base+"/cbc:ID"), base)
		assert.Equal(t, order.SalesOrderID, textAt(t, root, base+"/cbc:SalesOrderID"), base)
		assert.Equal(t, order.OrderUUID, textAt(t, root, base+"/cbc:UUID"), base)
		assert.Equal(t, order.OrderIssueDate, textAt(t, root, base+"/cbc:IssueDate"), base)
	}
}

func TestSynthesize_PartyMapping(t *testing.T) {
	order := fullOrder(t)
	root := parseDespatch(t, fixedSynthesizer().Synthesize(order, model.Overrides{}))

	// vendedor -> DespatchSupplierParty
	assert.Equal(t, "CO001", textAt(t, root, "cac:DespatchSupplierParty/cbc:CustomerAssignedAccountID"))
	assert.Equal(t, "Consortial", textAt(t, root, "cac:DespatchSupplierParty/cac:Party/cac:PartyName/cbc:Name"))
	assert.Equal(t, "Busy Street", textAt(t, root, "cac:DespatchSupplierParty/cac:Party/cac:PostalAddress/cbc:StreetName"))
	assert.Equal(t, "The Roundabout", textAt(t, root, "cac:DespatchSupplierParty/cac:Party/cac:PostalAddress/cac:AddressLine/cbc:Line"))

	// comprador -> DeliveryCustomerParty
	assert.Equal(t, "XFB01", textAt(t, root, "cac:DeliveryCustomerParty/cbc:CustomerAssignedAccountID"))
	assert.Equal(t, "GT00978567", textAt(t, root, "cac:DeliveryCustomerParty/cbc:SupplierAssignedAccountID"))
	assert.Equal(t, "IYT Corporation", textAt(t, root, "cac:DeliveryCustomerParty/cac:Party/cac:PartyName/cbc:Name"))
	assert.Equal(t, "GB", textAt(t, root, "cac:DeliveryCustomerParty/cac:Party/cac:PostalAddress/cac:Country/cbc:IdentificationCode"))

	// entrega -> Shipment/Delivery/DeliveryAddress
	assert.Equal(t, "Bridgtow", textAt(t, root, "cac:Shipment/cac:Delivery/cac:DeliveryAddress/cbc:CityName"))
	assert.Equal(t, "ZZ99 1ZZ", textAt(t, root, "cac:Shipment/cac:Delivery/cac:DeliveryAddress/cbc:PostalZone"))
}

func TestSynthesize_MissingAddressesStillEmitShape(t *testing.T) {
	root := parseDespatch(t, fixedSynthesizer().Synthesize(model.ParsedOrder{OrderID: "1"}, model.Overrides{}))

	addr := root.FindElement("cac:DespatchSupplierParty/cac:Party/cac:PostalAddress")
	require.NotNil(t, addr)
	assert.Len(t, addr.ChildElements(), 8)
	assert.Equal(t, "", textAt(t, root, "cac:DespatchSupplierParty/cac:Party/cac:PostalAddress/cbc:CityName"))
	assert.Equal(t, "", textAt(t, root, "cac:Shipment/cac:Delivery/cac:DeliveryAddress/cac:Country/cbc:IdentificationCode"))
	assert.Equal(t, "", textAt(t, root, "cac:DespatchLine/cac:Item/cac:ItemInstance/cac:LotIdentification/cbc:LotNumberID"))
}

func TestSynthesize_LineDefaults(t *testing.T) {
	root := parseDespatch(t, fixedSynthesizer().Synthesize(model.ParsedOrder{}, model.Overrides{}))

	assert.Equal(t, "1", textAt(t, root, "cac:DespatchLine/cac:OrderLineReference/cbc:LineID"))
	assert.Equal(t, "A", textAt(t, root, "cac:DespatchLine/cac:OrderLineReference/cbc:SalesOrderLineID"))
	assert.Equal(t, "Acme beeswax", textAt(t, root, "cac:DespatchLine/cac:Item/cbc:Description"))
	assert.Equal(t, "beeswax", textAt(t, root, "cac:DespatchLine/cac:Item/cbc:Name"))
	assert.Equal(t, "6578489", textAt(t, root, "cac:DespatchLine/cac:Item/cac:BuyersItemIdentification/cbc:ID"))
	assert.Equal(t, "17589683", textAt(t, root, "cac:DespatchLine/cac:Item/cac:SellersItemIdentification/cbc:ID"))
	assert.Equal(t, "10:30:47.0Z", textAt(t, root, "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/cbc:StartTime"))
	assert.Equal(t, "", textAt(t, root, "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/cbc:EndDate"))
}

func TestSynthesize_UnitCode(t *testing.T) {
	tests := []struct {
		name string
		line *model.OrderLine
		want string
	}{
		{name: "no line", line: nil, want: "KGM"},
		{name: "line without unit code", line: &model.OrderLine{Quantity: "4"}, want: "KGM"},
		{name: "line unit code", line: &model.OrderLine{QuantityUnitCode: "EA"}, want: "EA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseDespatch(t, fixedSynthesizer().Synthesize(model.ParsedOrder{OrderLine: tt.line}, model.Overrides{}))
			for _, p := range []string{"cac:DespatchLine/cbc:DeliveredQuantity", "cac:DespatchLine/cbc:BackorderQuantity"} {
				el := root.FindElement(p)
				require.NotNil(t, el)
				assert.Equal(t, tt.want, el.SelectAttrValue("unitCode", ""), p)
			}
		})
	}
}

func TestSynthesize_OverridePrecedence(t *testing.T) {
	order := fullOrder(t)
	ov := model.Overrides{
		DeliveredQuantity: "5",
		BackorderQuantity: "20",
		BackorderReason:   "Overstocked",
		ShipmentStartDate: "2005-06-21",
		ShipmentEndDate:   "2005-06-28",
		DespatchLineNote:  "none",
		LotNumberID:       "10",
		LotExpiryDate:     "2006-10-10",
	}
	root := parseDespatch(t, fixedSynthesizer().Synthesize(order, ov))

	assert.Equal(t, "5", textAt(t, root, "cac:DespatchLine/cbc:DeliveredQuantity"))
	assert.Equal(t, "20", textAt(t, root, "cac:DespatchLine/cbc:BackorderQuantity"))
	assert.Equal(t, "Overstocked", textAt(t, root, "cac:DespatchLine/cbc:BackorderReason"))
	assert.Equal(t, "none", textAt(t, root, "cac:DespatchLine/cbc:Note"))
	assert.Equal(t, "2005-06-21", textAt(t, root, "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/cbc:StartDate"))
	assert.Equal(t, "2005-06-28", textAt(t, root, "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/cbc:EndDate"))
	assert.Equal(t, "10", textAt(t, root, "cac:DespatchLine/cac:Item/cac:ItemInstance/cac:LotIdentification/cbc:LotNumberID"))
	assert.Equal(t, "2006-10-10", textAt(t, root, "cac:DespatchLine/cac:Item/cac:ItemInstance/cac:LotIdentification/cbc:ExpiryDate"))

	// datos del pedido
	assert.Equal(t, "beeswax", textAt(t, root, "cac:DespatchLine/cac:Item/cbc:Name"))
	assert.Equal(t, "KGM", root.FindElement("cac:DespatchLine/cbc:DeliveredQuantity").SelectAttrValue("unitCode", ""))
}

func TestSynthesize_RequestedDeliveryPeriod(t *testing.T) {
	period := "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/"
	order := model.ParsedOrder{RequestedDeliveryStartDate: "2005-06-29", RequestedDeliveryEndDate: "2005-06-30"}

	tests := []struct {
		name      string
		order     model.ParsedOrder
		ov        model.Overrides
		wantStart string
		wantEnd   string
	}{
		{name: "from order", order: order, wantStart: "2005-06-29", wantEnd: "2005-06-30"},
		{
			name:      "overrides win",
			order:     order,
			ov:        model.Overrides{ShipmentStartDate: "2005-07-01", ShipmentEndDate: "2005-07-02"},
			wantStart: "2005-07-01",
			wantEnd:   "2005-07-02",
		},
		{name: "only end from order", order: model.ParsedOrder{RequestedDeliveryEndDate: "2005-06-30"}, wantStart: "2024-03-15", wantEnd: "2005-06-30"},
		{name: "nothing set", wantStart: "2024-03-15", wantEnd: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseDespatch(t, fixedSynthesizer().Synthesize(tt.order, tt.ov))
			assert.Equal(t, tt.wantStart, textAt(t, root, period+"cbc:StartDate"))
			assert.Equal(t, tt.wantEnd, textAt(t, root, period+"cbc:EndDate"))
		})
	}
}

func TestSynthesize_IsDeterministic(t *testing.T) {
	s := fixedSynthesizer()
	order := fullOrder(t)
	ov := model.Overrides{BackorderReason: "Overstocked"}
	assert.Equal(t, s.Synthesize(order, ov), s.Synthesize(order, ov))
}

func TestSynthesize_EscapesText(t *testing.T) {
	order := model.ParsedOrder{OrderID: "A&B", SellerName: "<Acme>"}
	out := fixedSynthesizer().Synthesize(order, model.Overrides{})

	root := parseDespatch(t, out)
	assert.Equal(t, "A&B", textAt(t, root, "cbc:ID"))
	assert.Equal(t, "<Acme>", textAt(t, root, "cac:DespatchSupplierParty/cac:Party/cac:PartyName/cbc:Name"))
}

func TestSynthesizeDespatchAdvice_UsesWallClock(t *testing.T) {
	out := SynthesizeDespatchAdvice(model.ParsedOrder{}, model.Overrides{})
	root := parseDespatch(t, out)

	start := textAt(t, root, "cac:Shipment/cac:Delivery/cac:RequestedDeliveryPeriod/cbc:StartDate")
	_, err := time.Parse("2006-01-02", start)
	assert.NoError(t, err)
}
