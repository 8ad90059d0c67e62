// internal/models/order.go
package models

import "math"

// MenuItem is a single catalog entry tagged with the venue that sells it.
type MenuItem struct {
	ID          string   `json:"id" yaml:"id"`
	VenueID     string   `json:"venue_id" yaml:"venue_id"`
	Title       string   `json:"title" yaml:"title"`
	Subtitle    string   `json:"subtitle" yaml:"subtitle"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Price       float64  `json:"price" yaml:"price"`
	Category    string   `json:"category" yaml:"category"`
}

type OrderDetails struct {
	Items      []MenuItem `json:"items"`
	Address    string     `json:"address"`
	TotalPrice float64    `json:"total_price"`
}

// NewOrderDetails builds an order whose total is the sum of its item prices.
func NewOrderDetails(address string, items ...MenuItem) *OrderDetails {
	return &OrderDetails{
		Items:      items,
		Address:    address,
		TotalPrice: SumPrices(items),
	}
}

func SumPrices(items []MenuItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return total
}

// TotalMatches reports whether TotalPrice equals the item sum within a cent.
func (o *OrderDetails) TotalMatches() bool {
	return math.Abs(o.TotalPrice-SumPrices(o.Items)) < 0.005
}

// CCDetails are forwarded to the payment provider and never stored by the agent.
type CCDetails struct {
	CCNumber string `json:"cc_number"`
	CVV      string `json:"cvv"`
	Expiry   string `json:"expiry"`
}

type Order struct {
	ID             string       `json:"id,omitempty"`
	OrderDetails   OrderDetails `json:"order_details"`
	PaymentDetails CCDetails    `json:"-"`
}

// Order statuses reported by CheckOrder.
const (
	OrderStatusAccepted = "accepted"
	OrderStatusNotFound = "not found"
)

// OrderStatus is what the catalog reports about a booked order.
type OrderStatus struct {
	ID         string     `json:"id,omitempty"`
	Status     string     `json:"status"`
	Items      []MenuItem `json:"items,omitempty"`
	Address    string     `json:"address,omitempty"`
	TotalPrice float64    `json:"total_price,omitempty"`
}
