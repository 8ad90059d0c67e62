// Package ordering books the order the agent proposed once payment details arrive.
package ordering

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "food-ordering-agent/internal/common/errors"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/common/validation"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/internal/notification"
)

// Request is the POST /order body.
type Request struct {
	Order     *models.OrderDetails `json:"order"`
	CCDetails models.CCDetails     `json:"cc_details"`
}

// OrderBook is the booking side of the catalog.
type OrderBook interface {
	BookOrder(ctx context.Context, order *models.Order) (string, error)
	CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error)
}

// Sessions is the part of the session store booking touches.
type Sessions interface {
	PendingOrder(ctx context.Context, id string) (*models.OrderDetails, error)
	ClearPendingOrder(ctx context.Context, id string) error
}

// ProcessStarter starts a fulfilment process instance.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

type Config struct {
	FulfillmentProcess string
}

type Service struct {
	config    Config
	validator *validation.Validator
	orders    OrderBook
	sessions  Sessions
	notifier  notification.Notifier
	process   ProcessStarter
	logger    logger.Logger
}

// NewService builds the booking service. notifier and process may be nil to skip that fan-out.
func NewService(cfg Config, orders OrderBook, sessions Sessions, notifier notification.Notifier, process ProcessStarter, log logger.Logger) *Service {
	return &Service{
		config:    cfg,
		validator: validation.MustValidator(orderRequestSchema),
		orders:    orders,
		sessions:  sessions,
		notifier:  notifier,
		process:   process,
		logger:    logger.Component(log, "ordering"),
	}
}

// PlaceOrder validates a raw POST /order body and books it.
func (s *Service) PlaceOrder(ctx context.Context, sessionKey string, body []byte) (*models.Response, error) {
	result, err := s.validator.ValidateBytes(body)
	if err != nil {
		return nil, apperrors.NewOrderValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewOrderValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewOrderValidationFailedError(err.Error())
	}
	return s.Book(ctx, sessionKey, req.Order, req.CCDetails)
}

// BookPending books the session's pending order with the given payment details.
func (s *Service) BookPending(ctx context.Context, sessionKey string, payment models.CCDetails) (*models.Response, error) {
	pending, err := s.sessions.PendingOrder(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, apperrors.NewNoPendingOrderError(sessionKey)
	}
	return s.Book(ctx, sessionKey, pending, payment)
}

// Book sends the order to the order book, clears the session's pending order and
// announces the booking. Announcement failures are logged only.
func (s *Service) Book(ctx context.Context, sessionKey string, details *models.OrderDetails, payment models.CCDetails) (*models.Response, error) {
	if details == nil || len(details.Items) == 0 {
		return nil, apperrors.NewOrderValidationFailedError("order has no items")
	}
	if !details.TotalMatches() {
		return nil, apperrors.NewOrderValidationFailedError(fmt.Sprintf(
			"total_price %.2f does not match item sum %.2f", details.TotalPrice, models.SumPrices(details.Items)))
	}

	order := &models.Order{OrderDetails: *details, PaymentDetails: payment}
	orderID, err := s.orders.BookOrder(ctx, order)
	if err != nil {
		metrics.OrdersBooked.WithLabelValues("failure").Inc()
		return nil, apperrors.NewOrderBookingFailedError(err)
	}
	order.ID = orderID
	metrics.OrdersBooked.WithLabelValues("success").Inc()

	s.logger.Info("order created", map[string]interface{}{
		"orderId":    orderID,
		"session":    sessionKey,
		"itemCount":  len(details.Items),
		"totalPrice": details.TotalPrice,
	})

	if sessionKey != "" {
		if err := s.sessions.ClearPendingOrder(ctx, sessionKey); err != nil {
			s.logger.Warn("failed to clear pending order", map[string]interface{}{
				"session": sessionKey,
				"error":   err.Error(),
			})
		}
	}

	s.fanOut(ctx, order)

	booked := *details
	return &models.Response{
		Status:   models.StatusOrderCreated,
		Response: fmt.Sprintf("Order successfully created with ID: %s", orderID),
		Order:    &booked,
	}, nil
}

// CheckOrder reports the status of a booked order; unknown ids yield status "not found".
func (s *Service) CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error) {
	status, err := s.orders.CheckOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	return status, nil
}

func (s *Service) fanOut(ctx context.Context, order *models.Order) {
	if s.notifier != nil {
		status, err := s.notifier.NotifyOrderCreated(ctx, notification.OrderCreated{
			OrderID:    order.ID,
			Address:    order.OrderDetails.Address,
			TotalPrice: order.OrderDetails.TotalPrice,
			Items:      order.OrderDetails.Items,
		})
		if err != nil {
			stdErr := apperrors.NewNotificationSendFailedError("order-created", err)
			s.logger.Warn("order notification failed", map[string]interface{}{
				"orderId": order.ID,
				"code":    string(stdErr.Code),
				"error":   err.Error(),
			})
		} else {
			s.logger.Debug("order notification", map[string]interface{}{
				"orderId": order.ID,
				"status":  status,
			})
		}
	}

	if s.process != nil && s.config.FulfillmentProcess != "" {
		key, err := s.process.StartProcess(ctx, s.config.FulfillmentProcess, map[string]interface{}{
			"orderId":    order.ID,
			"address":    order.OrderDetails.Address,
			"totalPrice": order.OrderDetails.TotalPrice,
			"itemCount":  len(order.OrderDetails.Items),
		})
		if err != nil {
			s.logger.Warn("failed to start fulfillment process", map[string]interface{}{
				"orderId": order.ID,
				"process": s.config.FulfillmentProcess,
				"error":   err.Error(),
			})
			return
		}
		s.logger.Info("fulfillment process started", map[string]interface{}{
			"orderId":            order.ID,
			"processInstanceKey": key,
		})
	}
}
