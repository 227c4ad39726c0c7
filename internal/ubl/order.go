package ubl

import (
	"gopkg.in/xmlpath.v2"

	"despatch-advice-service/internal/model"
)

const OrderRoot = "Order"

// Rutas relativas al elemento <Order>. Un xmlpath.Path compilado se puede
// usar de forma concurrente.
var (
	orderIDPath        = xmlpath.MustCompile("ID")
	orderSalesIDPath   = xmlpath.MustCompile("SalesOrderID")
	orderUUIDPath      = xmlpath.MustCompile("UUID")
	orderIssueDatePath = xmlpath.MustCompile("IssueDate")
	orderNotePath      = xmlpath.MustCompile("Note")

	buyerPartyPath  = xmlpath.MustCompile("BuyerCustomerParty")
	sellerPartyPath = xmlpath.MustCompile("SellerSupplierParty")

	partyAccountIDPath = xmlpath.MustCompile("CustomerAssignedAccountID")
	partyNamePath      = xmlpath.MustCompile("Party/PartyName/Name")
	partyAddressPath   = xmlpath.MustCompile("Party/PostalAddress")

	deliveryAddressPath   = xmlpath.MustCompile("Delivery/DeliveryAddress")
	deliveryStartDatePath = xmlpath.MustCompile("Delivery/RequestedDeliveryPeriod/StartDate")
	deliveryEndDatePath   = xmlpath.MustCompile("Delivery/RequestedDeliveryPeriod/EndDate")

	orderLinePath = xmlpath.MustCompile("OrderLine")
)

// Rutas relativas a un nodo de dirección.
var (
	addrStreetPath      = xmlpath.MustCompile("StreetName")
	addrBuildingPath    = xmlpath.MustCompile("BuildingName")
	addrNumberPath      = xmlpath.MustCompile("BuildingNumber")
	addrCityPath        = xmlpath.MustCompile("CityName")
	addrPostalZonePath  = xmlpath.MustCompile("PostalZone")
	addrSubentityPath   = xmlpath.MustCompile("CountrySubentity")
	addrLinePath        = xmlpath.MustCompile("AddressLine/Line")
	addrCountryCodePath = xmlpath.MustCompile("Country/IdentificationCode")
)

// Rutas relativas a <cac:LineItem>.
var (
	lineItemPath         = xmlpath.MustCompile("LineItem")
	lineIDPath           = xmlpath.MustCompile("ID")
	lineSalesOrderIDPath = xmlpath.MustCompile("SalesOrderID")
	lineStatusCodePath   = xmlpath.MustCompile("LineStatusCode")
	lineQuantityPath     = xmlpath.MustCompile("Quantity")
	lineUnitCodePath     = xmlpath.MustCompile("Quantity/@unitCode")
	lineAmountPath       = xmlpath.MustCompile("LineExtensionAmount")
	itemNamePath         = xmlpath.MustCompile("Item/Name")
	itemDescriptionPath  = xmlpath.MustCompile("Item/Description")
	buyersItemIDPath     = xmlpath.MustCompile("Item/BuyersItemIdentification/ID")
	sellersItemIDPath    = xmlpath.MustCompile("Item/SellersItemIdentification/ID")
)

// ExtractOrder convierte un UBL Order en un ParsedOrder.
// Sólo falla si el XML no es válido o si falta la raíz <Order>; cualquier
// otra sección ausente queda como "" o nil.
func ExtractOrder(raw string) (*model.ParsedOrder, error) {
	order, err := ParseTree(raw, OrderRoot)
	if err != nil {
		return nil, err
	}

	buyer := First(order, buyerPartyPath)
	seller := First(order, sellerPartyPath)

	return &model.ParsedOrder{
		OrderID:        Text(order, orderIDPath),
		SalesOrderID:   Text(order, orderSalesIDPath),
		OrderUUID:      Text(order, orderUUIDPath),
		OrderIssueDate: Text(order, orderIssueDatePath),
		Note:           Text(order, orderNotePath),

		BuyerAccountID: Text(buyer, partyAccountIDPath),
		BuyerName:      Text(buyer, partyNamePath),
		BuyerAddress:   extractAddress(First(buyer, partyAddressPath)),

		SellerAccountID: Text(seller, partyAccountIDPath),
		SellerName:      Text(seller, partyNamePath),
		SellerAddress:   extractAddress(First(seller, partyAddressPath)),

		DeliveryAddress:            extractAddress(First(order, deliveryAddressPath)),
		RequestedDeliveryStartDate: Text(order, deliveryStartDatePath),
		RequestedDeliveryEndDate:   Text(order, deliveryEndDatePath),

		OrderLine: extractOrderLine(Nodes(order, orderLinePath)),
	}, nil
}

// extractAddress devuelve nil si el nodo no existe; si existe, todos los
// campos quedan informados (posiblemente vacíos).
func extractAddress(node *xmlpath.Node) *model.PostalAddress {
	if node == nil {
		return nil
	}
	return &model.PostalAddress{
		StreetName:       Text(node, addrStreetPath),
		BuildingName:     Text(node, addrBuildingPath),
		BuildingNumber:   Text(node, addrNumberPath),
		CityName:         Text(node, addrCityPath),
		PostalZone:       Text(node, addrPostalZonePath),
		CountrySubentity: Text(node, addrSubentityPath),
		AddressLine:      Text(node, addrLinePath),
		CountryCode:      Text(node, addrCountryCodePath),
	}
}

// extractOrderLine sólo mira la primera línea; el resto se descarta.
func extractOrderLine(lines []*xmlpath.Node) *model.OrderLine {
	if len(lines) == 0 {
		return nil
	}
	item := First(lines[0], lineItemPath)
	if item == nil {
		return nil
	}
	return &model.OrderLine{
		LineID:              Text(item, lineIDPath),
		SalesOrderLineID:    Text(item, lineSalesOrderIDPath),
		LineStatusCode:      Text(item, lineStatusCodePath),
		Quantity:            Text(item, lineQuantityPath),
		QuantityUnitCode:    Text(item, lineUnitCodePath),
		LineExtensionAmount: Text(item, lineAmountPath),
		ItemName:            Text(item, itemNamePath),
		ItemDescription:     Text(item, itemDescriptionPath),
		BuyersItemID:        Text(item, buyersItemIDPath),
		SellersItemID:       Text(item, sellersItemIDPath),
	}
}
