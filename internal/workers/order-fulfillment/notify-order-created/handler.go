package notifyordercreated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "food-ordering-agent/internal/common/errors"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/internal/notification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-order-created"
)

var (
	ErrInvalidInput  = errors.New("INVALID_INPUT")
	ErrOrderNotFound = errors.New("ORDER_NOT_FOUND")
)

// OrderChecker looks up a booked order.
type OrderChecker interface {
	CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error)
}

type Handler struct {
	config       *Config
	orders       OrderChecker
	notifier     notification.Notifier
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, orders OrderChecker, notifier notification.Notifier, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		orders:       orders,
		notifier:     notifier,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job,
			apperrors.NewBusinessRuleError("Invalid job variables", fmt.Sprintf("parse input: %v", err)))
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, h.toStandardError(err, input.OrderID))
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.OrderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	}

	status, err := h.orders.CheckOrder(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("check order %s: %w", input.OrderID, err)
	}
	if status.Status == models.OrderStatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, input.OrderID)
	}

	event := notification.OrderCreated{
		OrderID:    input.OrderID,
		Address:    status.Address,
		TotalPrice: status.TotalPrice,
		Items:      status.Items,
	}
	if event.Address == "" {
		event.Address = input.Address
	}
	if event.TotalPrice == 0 {
		event.TotalPrice = input.TotalPrice
	}

	notificationStatus, err := h.notifier.NotifyOrderCreated(ctx, event)
	if err != nil {
		return nil, err
	}

	h.logger.Info("order notification sent", map[string]interface{}{
		"orderId": input.OrderID,
		"status":  notificationStatus,
	})

	return &Output{
		Notified:           notificationStatus == notification.StatusSent,
		Status:             status.Status,
		NotificationStatus: notificationStatus,
	}, nil
}

func (h *Handler) toStandardError(err error, orderID string) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewBusinessRuleError("Invalid job input", err.Error())
	case errors.Is(err, ErrOrderNotFound):
		return apperrors.NewOrderNotFoundError(orderID)
	case errors.Is(err, notification.ErrNotificationSendFailed):
		return apperrors.NewNotificationSendFailedError("order-created", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("order-book", err)
	default:
		return apperrors.NewExternalServiceError("order-book", err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	return nil
}

// Execute runs the job logic without a Zeebe client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
