// Package notification announces booked orders over SNS and SES.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-ordering-agent/internal/common/aws"
	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/models"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// Statuses reported by Notify.
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Publisher posts a message to a topic.
type Publisher interface {
	PublishMessage(ctx context.Context, subject, message string) (string, error)
}

// Mailer sends a plain-text email.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// OrderCreated is what gets announced about a booked order. It never carries payment details.
type OrderCreated struct {
	OrderID    string
	Address    string
	TotalPrice float64
	Items      []models.MenuItem
}

// Notifier fans an order announcement out to the enabled channels.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, event OrderCreated) (string, error)
}

type Service struct {
	publisher Publisher
	mailer    Mailer
	mailTo    string
	logger    logger.Logger
}

// NewService accepts nil channels; a service without channels reports StatusDisabled.
func NewService(publisher Publisher, mailer Mailer, mailTo string, log logger.Logger) *Service {
	return &Service{
		publisher: publisher,
		mailer:    mailer,
		mailTo:    mailTo,
		logger:    logger.Component(log, "order-notifier"),
	}
}

// NewFromConfig wires the AWS clients for whichever channels are enabled.
func NewFromConfig(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Service, error) {
	if !cfg.SNS.Enabled && !cfg.SES.Enabled {
		return NewService(nil, nil, "", log), nil
	}

	awsCfg, err := aws.LoadConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}

	var (
		publisher Publisher
		mailer    Mailer
	)
	if cfg.SNS.Enabled {
		publisher = aws.NewSNSClient(awsCfg, cfg.SNS.TopicARN)
	}
	if cfg.SES.Enabled {
		mailer = aws.NewSESClient(awsCfg, cfg.SES.FromEmail)
	}
	return NewService(publisher, mailer, cfg.SES.ToEmail, log), nil
}

// NotifyOrderCreated sends the announcement on every channel. The first failure is returned
// after all channels have been tried.
func (s *Service) NotifyOrderCreated(ctx context.Context, event OrderCreated) (string, error) {
	if s.publisher == nil && s.mailer == nil {
		return StatusDisabled, nil
	}

	subject := Subject(event)
	body := Body(event)

	var firstErr error
	if s.publisher != nil {
		msgID, err := s.publisher.PublishMessage(ctx, subject, body)
		metrics.ObserveCall("sns", "publish", err)
		if err != nil {
			s.logger.Error("sns publish failed", map[string]interface{}{
				"orderId": event.OrderID,
				"error":   err.Error(),
			})
			firstErr = fmt.Errorf("%w: sns: %v", ErrNotificationSendFailed, err)
		} else {
			s.logger.Info("order published", map[string]interface{}{
				"orderId":   event.OrderID,
				"messageId": msgID,
			})
		}
	}

	if s.mailer != nil && s.mailTo != "" {
		msgID, err := s.mailer.SendText(ctx, s.mailTo, subject, body)
		metrics.ObserveCall("ses", "sendEmail", err)
		if err != nil {
			s.logger.Error("ses send failed", map[string]interface{}{
				"orderId": event.OrderID,
				"error":   err.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: ses: %v", ErrNotificationSendFailed, err)
			}
		} else {
			s.logger.Info("order email sent", map[string]interface{}{
				"orderId":   event.OrderID,
				"messageId": msgID,
			})
		}
	}

	if firstErr != nil {
		return StatusFailed, firstErr
	}
	return StatusSent, nil
}

func Subject(event OrderCreated) string {
	return fmt.Sprintf("Order %s created", event.OrderID)
}

// Body renders the plain-text announcement.
func Body(event OrderCreated) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\n", event.OrderID)
	fmt.Fprintf(&b, "Deliver to: %s\n", event.Address)
	b.WriteString("Items:\n")
	for _, item := range event.Items {
		fmt.Fprintf(&b, "  - %s (%.2f)\n", item.Title, item.Price)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", event.TotalPrice)
	fmt.Fprintf(&b, "Created at: %s\n", time.Now().UTC().Format(time.RFC3339))
	return b.String()
}
