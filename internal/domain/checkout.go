package domain

const (
	Currency        = "gbp"
	ModePayment     = "payment"
	DefaultItemName = "Item"
)

// LineItem is a cart entry normalized into the provider's shape.
// UnitAmount is in minor units (pence).
type LineItem struct {
	Quantity      int64
	UnitAmount    int64
	Currency      string
	ProductName   string
	ProductImages []string
}

type CheckoutRequest struct {
	LineItems      []LineItem
	Mode           string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// CheckoutSession is what the provider hands back for a created session.
type CheckoutSession struct {
	ID  string
	URL string
}
