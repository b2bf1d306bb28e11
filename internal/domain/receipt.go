package domain

import "strings"

// OrderReceipt is the connector's interpretation of a CLOB order response.
type OrderReceipt struct {
	OrderID string
	Status  string // "matched", "filled", "live", ...
	Raw     string // raw response body, kept as diagnostic text
}

// Accepted reports whether the CLOB accepted the order: either an order ID
// came back or the status says matched/filled.
func (r OrderReceipt) Accepted() bool {
	if r.OrderID != "" {
		return true
	}
	s := strings.ToLower(r.Status)
	return s == "matched" || s == "filled"
}
