package domain

import "time"

// Receipt is one NFC-e purchase receipt, keyed by its access key.
// Monetary fields are kept as decimal strings (dot separator) exactly as
// printed on the note; optional fields are empty when the page omits them.
type Receipt struct {
	AccessKey         string     `json:"access_key"`
	MerchantName      string     `json:"merchant_name,omitempty"`
	CNPJ              string     `json:"cnpj,omitempty"`
	Address           string     `json:"address,omitempty"`
	PurchaseTimestamp time.Time  `json:"purchase_timestamp"`
	TotalItems        string     `json:"total_items,omitempty"`
	TotalAmount       string     `json:"total_amount,omitempty"`
	Discount          string     `json:"discount,omitempty"`
	PaidAmount        string     `json:"paid_amount,omitempty"`
	Items             []LineItem `json:"items"`
}

// LineItem is one purchased product row on a receipt. AccessKey is a
// back-reference to the owning receipt, stored by value on every row.
type LineItem struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	UnitType   string `json:"unit_type"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
	AccessKey  string `json:"access_key"`
}
