// models.go
package model

import "time"

// PostalAddress normalizada. Los campos ausentes quedan en "".
type PostalAddress struct {
	StreetName       string `bson:"street_name" json:"streetName"`
	BuildingName     string `bson:"building_name" json:"buildingName"`
	BuildingNumber   string `bson:"building_number" json:"buildingNumber"`
	CityName         string `bson:"city_name" json:"cityName"`
	PostalZone       string `bson:"postal_zone" json:"postalZone"`
	CountrySubentity string `bson:"country_subentity" json:"countrySubentity"`
	AddressLine      string `bson:"address_line" json:"addressLine"`
	CountryCode      string `bson:"country_code" json:"countryCode"`
}

// OrderLine representa la primera <cac:OrderLine> del pedido.
type OrderLine struct {
	LineID              string `json:"lineId"`
	SalesOrderLineID    string `json:"salesOrderLineId"`
	LineStatusCode      string `json:"lineStatusCode"`
	Quantity            string `json:"quantity"`
	QuantityUnitCode    string `json:"quantityUnitCode"`
	LineExtensionAmount string `json:"lineExtensionAmount"`
	ItemName            string `json:"itemName"`
	ItemDescription     string `json:"itemDescription"`
	BuyersItemID        string `json:"buyersItemId"`
	SellersItemID       string `json:"sellersItemId"`
}

// ParsedOrder es el resultado plano de leer un UBL Order.
// Las direcciones y la línea son nil cuando la sección no existe en el XML.
type ParsedOrder struct {
	OrderID        string `json:"orderId"`
	SalesOrderID   string `json:"salesOrderId"`
	OrderUUID      string `json:"orderUUID"`
	OrderIssueDate string `json:"orderIssueDate"`
	Note           string `json:"note"`

	BuyerAccountID string         `json:"buyerAccountId"`
	BuyerName      string         `json:"buyerName"`
	BuyerAddress   *PostalAddress `json:"buyerAddress"`

	SellerAccountID string         `json:"sellerAccountId"`
	SellerName      string         `json:"sellerName"`
	SellerAddress   *PostalAddress `json:"sellerAddress"`

	DeliveryAddress            *PostalAddress `json:"deliveryAddress"`
	RequestedDeliveryStartDate string         `json:"requestedDeliveryStartDate"`
	RequestedDeliveryEndDate   string         `json:"requestedDeliveryEndDate"`

	OrderLine *OrderLine `json:"orderLine"`
}

// Overrides son los valores opcionales que aporta el usuario al generar.
// "" equivale a no informado.
type Overrides struct {
	DespatchID        string `json:"despatchId,omitempty"`
	DespatchUUID      string `json:"despatchUUID,omitempty"`
	DeliveredQuantity string `json:"deliveredQuantity,omitempty"`
	BackorderQuantity string `json:"backorderQuantity,omitempty"`
	BackorderReason   string `json:"backorderReason,omitempty"`
	ShipmentStartDate string `json:"shipmentStartDate,omitempty"`
	ShipmentEndDate   string `json:"shipmentEndDate,omitempty"`
	DespatchLineNote  string `json:"despatchLineNote,omitempty"`
	LotNumberID       string `json:"lotNumberID,omitempty"`
	LotExpiryDate     string `json:"lotExpiryDate,omitempty"`
}

// Claves aceptadas en userInputs. despatchId y despatchUUID se aceptan
// pero el generador no las aplica.
var AllowedOverrideKeys = []string{
	"despatchId",
	"despatchUUID",
	"deliveredQuantity",
	"backorderQuantity",
	"backorderReason",
	"shipmentStartDate",
	"shipmentEndDate",
	"despatchLineNote",
	"lotNumberID",
	"lotExpiryDate",
}

// OverridesFromMap asume que las claves ya fueron validadas.
func OverridesFromMap(in map[string]string) Overrides {
	return Overrides{
		DespatchID:        in["despatchId"],
		DespatchUUID:      in["despatchUUID"],
		DeliveredQuantity: in["deliveredQuantity"],
		BackorderQuantity: in["backorderQuantity"],
		BackorderReason:   in["backorderReason"],
		ShipmentStartDate: in["shipmentStartDate"],
		ShipmentEndDate:   in["shipmentEndDate"],
		DespatchLineNote:  in["despatchLineNote"],
		LotNumberID:       in["lotNumberID"],
		LotExpiryDate:     in["lotExpiryDate"],
	}
}

// DespatchAdvice es el documento persistido. El XML no cambia tras guardarse;
// la cancelación sólo toca los metadatos.
type DespatchAdvice struct {
	DocUUID            string    `bson:"doc_uuid" json:"docUUID"`
	DespatchID         string    `bson:"despatch_id" json:"despatchId"`
	XML                string    `bson:"xml" json:"xml"`
	Cancelled          bool      `bson:"cancelled" json:"cancelled"`
	CancellationReason string    `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updatedAt"`
}

type User struct {
	ID           string    `bson:"user_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}
