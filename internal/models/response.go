package models

type ResponseStatus string

const (
	StatusAnswer                ResponseStatus = "answer"
	StatusError                 ResponseStatus = "error"
	StatusRequestAddress        ResponseStatus = "request_address"
	StatusRequestPreference     ResponseStatus = "request_preference"
	StatusRequestBudget         ResponseStatus = "request_budget"
	StatusRequestPaymentDetails ResponseStatus = "request_payment_details"
	StatusOrderCreated          ResponseStatus = "order_created"
)

// Response is what one conversation turn produces.
type Response struct {
	Status   ResponseStatus `json:"status"`
	Response string         `json:"response"`
	Order    *OrderDetails  `json:"order,omitempty"`
}
