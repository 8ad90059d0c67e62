package notifyordercreated

type Input struct {
	OrderID    string  `json:"orderId"`
	Address    string  `json:"address,omitempty"`
	TotalPrice float64 `json:"totalPrice,omitempty"`
	ItemCount  int     `json:"itemCount,omitempty"`
}

type Output struct {
	Notified           bool   `json:"notified"`
	Status             string `json:"status"`
	NotificationStatus string `json:"notificationStatus"`
}
