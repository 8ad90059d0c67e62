package ordering

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	apperrors "food-ordering-agent/internal/common/errors"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/internal/notification"
	"food-ordering-agent/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBook struct {
	booked []*models.Order
	err    error
}

func (s *stubBook) BookOrder(_ context.Context, order *models.Order) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.booked = append(s.booked, order)
	return fmt.Sprintf("order-%d", len(s.booked)), nil
}

func (s *stubBook) CheckOrder(_ context.Context, orderID string) (*models.OrderStatus, error) {
	for i := range s.booked {
		if fmt.Sprintf("order-%d", i+1) == orderID {
			return &models.OrderStatus{ID: orderID, Status: models.OrderStatusAccepted}, nil
		}
	}
	return &models.OrderStatus{ID: orderID, Status: models.OrderStatusNotFound}, nil
}

type stubNotifier struct {
	events []notification.OrderCreated
	err    error
}

func (s *stubNotifier) NotifyOrderCreated(_ context.Context, event notification.OrderCreated) (string, error) {
	s.events = append(s.events, event)
	if s.err != nil {
		return notification.StatusFailed, s.err
	}
	return notification.StatusSent, nil
}

type stubProcess struct {
	processID string
	vars      map[string]interface{}
	err       error
}

func (s *stubProcess) StartProcess(_ context.Context, processID string, variables map[string]interface{}) (int64, error) {
	s.processID = processID
	s.vars = variables
	return 2251799813685249, s.err
}

func pizza() models.MenuItem {
	return models.MenuItem{ID: "m1", VenueID: "v1", Title: "Margherita", Price: 14}
}

func requestBody(t *testing.T, mutate func(m map[string]interface{})) []byte {
	t.Helper()
	body := map[string]interface{}{
		"order": map[string]interface{}{
			"items":       []interface{}{map[string]interface{}{"id": "m1", "venue_id": "v1", "title": "Margherita", "price": 14}},
			"address":     "12 Baker Street",
			"total_price": 14,
		},
		"cc_details": map[string]interface{}{"cc_number": "4111 1111 1111 1111", "cvv": "123", "expiry": "12/30"},
	}
	if mutate != nil {
		mutate(body)
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

type fixture struct {
	svc      *Service
	book     *stubBook
	sessions *session.Store
	notifier *stubNotifier
	process  *stubProcess
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		book:     &stubBook{},
		sessions: session.NewStore(session.NewMemoryRepository(), nil, logger.NewNoOpLogger()),
		notifier: &stubNotifier{},
		process:  &stubProcess{},
	}
	f.svc = NewService(Config{FulfillmentProcess: "order-fulfillment"}, f.book, f.sessions, f.notifier, f.process, logger.NewTestLogger(t))
	return f
}

func (f *fixture) seedPending(t *testing.T, key string) {
	require.NoError(t, f.sessions.Update(context.Background(), key, func(s *models.Session) error {
		s.PendingOrder = models.NewOrderDetails("12 Baker Street", pizza())
		return nil
	}))
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "u")

	resp, err := f.svc.PlaceOrder(context.Background(), "u", requestBody(t, nil))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrderCreated, resp.Status)
	assert.Equal(t, "Order successfully created with ID: order-1", resp.Response)
	require.NotNil(t, resp.Order)
	assert.Equal(t, 14.0, resp.Order.TotalPrice)

	require.Len(t, f.book.booked, 1)
	assert.Equal(t, "123", f.book.booked[0].PaymentDetails.CVV)

	pending, err := f.sessions.PendingOrder(context.Background(), "u")
	require.NoError(t, err)
	assert.Nil(t, pending)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "order-1", f.notifier.events[0].OrderID)

	assert.Equal(t, "order-fulfillment", f.process.processID)
	assert.Equal(t, "order-1", f.process.vars["orderId"])
	assert.Equal(t, 1, f.process.vars["itemCount"])
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   func(t *testing.T) []byte
		detail string
	}{
		{name: "malformed json", body: func(*testing.T) []byte { return []byte("{") }},
		{name: "missing cc details", body: func(t *testing.T) []byte {
			return requestBody(t, func(m map[string]interface{}) { delete(m, "cc_details") })
		}, detail: "cc_details"},
		{name: "empty items", body: func(t *testing.T) []byte {
			return requestBody(t, func(m map[string]interface{}) {
				m["order"].(map[string]interface{})["items"] = []interface{}{}
			})
		}, detail: "items"},
		{name: "bad cvv", body: func(t *testing.T) []byte {
			return requestBody(t, func(m map[string]interface{}) {
				m["cc_details"].(map[string]interface{})["cvv"] = "12a"
			})
		}, detail: "cvv"},
		{name: "total mismatch", body: func(t *testing.T) []byte {
			return requestBody(t, func(m map[string]interface{}) {
				m["order"].(map[string]interface{})["total_price"] = 99
			})
		}, detail: "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.PlaceOrder(context.Background(), "u", tt.body(t))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeOrderValidationFailed, apperrors.CodeOf(err))
			if tt.detail != "" {
				stdErr, ok := apperrors.AsStandard(err)
				require.True(t, ok)
				assert.Contains(t, stdErr.Details, tt.detail)
			}
			assert.Empty(t, f.book.booked)
		})
	}
}

func TestBook_FanOutFailuresDoNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = fmt.Errorf("sns down")
	f.process.err = fmt.Errorf("broker down")

	resp, err := f.svc.Book(context.Background(), "u", models.NewOrderDetails("a", pizza()), models.CCDetails{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrderCreated, resp.Status)
}

func TestBook_BookingFailure(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "u")
	f.book.err = fmt.Errorf("db down")

	_, err := f.svc.Book(context.Background(), "u", models.NewOrderDetails("a", pizza()), models.CCDetails{})
	assert.Equal(t, apperrors.ErrCodeOrderBookingFailed, apperrors.CodeOf(err))

	pending, err := f.sessions.PendingOrder(context.Background(), "u")
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, f.notifier.events)
}

func TestBookPending(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BookPending(context.Background(), "u", models.CCDetails{})
	assert.Equal(t, apperrors.ErrCodeNoPendingOrder, apperrors.CodeOf(err))

	f.seedPending(t, "u")
	resp, err := f.svc.BookPending(context.Background(), "u", models.CCDetails{CCNumber: "4111111111111111", CVV: "123", Expiry: "12/30"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrderCreated, resp.Status)

	status, err := f.svc.CheckOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, status.Status)

	status, err = f.svc.CheckOrder(context.Background(), "order-9")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNotFound, status.Status)
}

func TestNewService_WithoutFanOut(t *testing.T) {
	book := &stubBook{}
	sessions := session.NewStore(session.NewMemoryRepository(), nil, logger.NewNoOpLogger())
	svc := NewService(Config{}, book, sessions, nil, nil, logger.NewNoOpLogger())

	resp, err := svc.Book(context.Background(), "", models.NewOrderDetails("a", pizza()), models.CCDetails{})
	require.NoError(t, err)
	assert.Equal(t, "Order successfully created with ID: order-1", resp.Response)
}
