package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/pkg/catalogfile"

	"github.com/google/uuid"
)

// FileVenueSource serves a fixture catalog. Every venue within the radius is returned
// whatever the address; proximity is precomputed in the fixture.
type FileVenueSource struct {
	catalog *catalogfile.Catalog
	logger  logger.Logger
}

func NewFileVenueSource(path string, log logger.Logger) (*FileVenueSource, error) {
	cat, err := catalogfile.Load(path)
	if err != nil {
		return nil, err
	}
	if problems := cat.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("catalog %s is invalid: %v", path, problems)
	}
	return NewFileVenueSourceFromCatalog(cat, log), nil
}

func NewFileVenueSourceFromCatalog(cat *catalogfile.Catalog, log logger.Logger) *FileVenueSource {
	return &FileVenueSource{catalog: cat, logger: logger.Component(log, "file-catalog")}
}

func (s *FileVenueSource) GetNearbyVenues(ctx context.Context, address string, radius float64) ([]models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var venues []models.Venue
	for _, v := range s.catalog.Venues {
		if v.Proximity <= radius {
			venues = append(venues, v)
		}
	}
	s.logger.Debug("nearby venues", map[string]interface{}{
		"address": address,
		"radius":  radius,
		"count":   len(venues),
	})
	return venues, nil
}

func (s *FileVenueSource) GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.catalog.Venue(venueID); !ok {
		return nil, fmt.Errorf("%w: unknown venue %s", ErrMenuLookupFailed, venueID)
	}
	items := s.catalog.Menus[venueID]
	out := make([]models.MenuItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *FileVenueSource) Ping(context.Context) error { return nil }

// FileOrderBook keeps booked orders in a JSON file keyed by order id.
type FileOrderBook struct {
	mu     sync.Mutex
	path   string
	orders map[string]storedOrder
	logger logger.Logger
}

type storedOrder struct {
	Status     string            `json:"status"`
	Items      []models.MenuItem `json:"items"`
	Address    string            `json:"address"`
	TotalPrice float64           `json:"total_price"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewFileOrderBook opens the order file, starting empty when it does not exist yet.
func NewFileOrderBook(path string, log logger.Logger) (*FileOrderBook, error) {
	book := &FileOrderBook{
		path:   path,
		orders: make(map[string]storedOrder),
		logger: logger.Component(log, "file-order-book"),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return book, nil
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", ErrOrderStoreFailed, path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &book.orders); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrOrderStoreFailed, path, err)
		}
	}
	return book, nil
}

func (b *FileOrderBook) BookOrder(ctx context.Context, order *models.Order) (string, error) {
	if err := validateOrder(order); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}
	b.orders[id] = storedOrder{
		Status:     models.OrderStatusAccepted,
		Items:      order.OrderDetails.Items,
		Address:    order.OrderDetails.Address,
		TotalPrice: order.OrderDetails.TotalPrice,
		CreatedAt:  time.Now().UTC(),
	}
	if err := b.flush(); err != nil {
		delete(b.orders, id)
		return "", err
	}

	b.logger.Info("order booked", map[string]interface{}{
		"orderId":    id,
		"itemCount":  len(order.OrderDetails.Items),
		"totalPrice": order.OrderDetails.TotalPrice,
	})
	return id, nil
}

func (b *FileOrderBook) CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stored, ok := b.orders[orderID]
	if !ok {
		return &models.OrderStatus{ID: orderID, Status: models.OrderStatusNotFound}, nil
	}
	return &models.OrderStatus{
		ID:         orderID,
		Status:     stored.Status,
		Items:      stored.Items,
		Address:    stored.Address,
		TotalPrice: stored.TotalPrice,
	}, nil
}

func (b *FileOrderBook) Ping(context.Context) error { return nil }

// flush rewrites the whole file through a temp file. Caller holds mu.
func (b *FileOrderBook) flush() error {
	data, err := json.MarshalIndent(b.orders, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrOrderStoreFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", ErrOrderStoreFailed, err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write: %v", ErrOrderStoreFailed, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrOrderStoreFailed, err)
	}
	return nil
}
