package model

// Order is the read-only projection of an external order the booking engine
// consumes. Only the fields the engine needs are loaded.
type Order struct {
	ID    string
	Items []LineItem
}

// LineItem carries the variant- and product-level metadata used to resolve the
// service duration of the purchased item.
type LineItem struct {
	ID              string
	OrderID         string
	Title           string
	Quantity        int
	VariantID       string
	VariantMetadata map[string]any
	ProductMetadata map[string]any
}
