package chow

// Order is a raw persisted order.  Items maps itemId to a positive
// quantity; an absent key means quantity zero.  EateryID never changes
// after creation.
type Order struct {
	ID       string         `json:"id"`
	EateryID string         `json:"eateryId"`
	Items    map[string]int `json:"items"`
}

// LineItem is a priced order line: the menu item plus the ordered
// quantity and the quantity-extended price.
type LineItem struct {
	MenuItem
	Quantity      int     `json:"quantity"`
	QuantityPrice float64 `json:"quantityPrice"`
}

// EateryOrder is the derived order view returned by the API: the raw
// order joined with its eatery, items rewritten as priced lines, and a
// grand total.  It is never persisted.
type EateryOrder struct {
	ID       string     `json:"id"`
	EateryID string     `json:"eateryId"`
	Name     string     `json:"name"`
	Loc      Loc        `json:"loc"`
	Cuisine  string     `json:"cuisine"`
	Items    []LineItem `json:"items"`
	Total    float64    `json:"total"`
}
