// Package catalog provides venues, menus and the order book behind the agent.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/models"

	"golang.org/x/sync/errgroup"
)

var (
	ErrVenueLookupFailed = errors.New("VENUE_LOOKUP_FAILED")
	ErrMenuLookupFailed  = errors.New("MENU_LOOKUP_FAILED")
	ErrOrderStoreFailed  = errors.New("ORDER_STORE_FAILED")
	ErrInvalidOrder      = errors.New("INVALID_ORDER")
)

// VenueSource lists venues near an address and their menus.
type VenueSource interface {
	GetNearbyVenues(ctx context.Context, address string, radius float64) ([]models.Venue, error)
	GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error)
	Ping(ctx context.Context) error
}

// OrderBook books orders and reports their status.
type OrderBook interface {
	BookOrder(ctx context.Context, order *models.Order) (string, error)
	CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error)
	Ping(ctx context.Context) error
}

// Service is the full catalog collaborator.
type Service interface {
	GetNearbyVenues(ctx context.Context, address string, radius float64) ([]models.Venue, error)
	GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error)
	BookOrder(ctx context.Context, order *models.Order) (string, error)
	CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error)
	Ping(ctx context.Context) error
}

type composite struct {
	venues  VenueSource
	orders  OrderBook
	timeout time.Duration
}

// NewService joins a venue source and an order book. A positive timeout bounds every call.
func NewService(venues VenueSource, orders OrderBook, timeout time.Duration) Service {
	return &composite{venues: venues, orders: orders, timeout: timeout}
}

func (c *composite) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *composite) GetNearbyVenues(ctx context.Context, address string, radius float64) ([]models.Venue, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	venues, err := c.venues.GetNearbyVenues(ctx, address, radius)
	metrics.ObserveCall("catalog", "getNearbyVenues", err)
	return venues, err
}

func (c *composite) GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	items, err := c.venues.GetMenu(ctx, venueID)
	metrics.ObserveCall("catalog", "getMenu", err)
	return items, err
}

func (c *composite) BookOrder(ctx context.Context, order *models.Order) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	id, err := c.orders.BookOrder(ctx, order)
	metrics.ObserveCall("catalog", "bookOrder", err)
	return id, err
}

func (c *composite) CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	status, err := c.orders.CheckOrder(ctx, orderID)
	metrics.ObserveCall("catalog", "checkOrder", err)
	return status, err
}

func (c *composite) Ping(ctx context.Context) error {
	if err := c.venues.Ping(ctx); err != nil {
		return fmt.Errorf("venue source: %w", err)
	}
	if err := c.orders.Ping(ctx); err != nil {
		return fmt.Errorf("order book: %w", err)
	}
	return nil
}

// MenuFetcher is the part of a catalog FetchMenus needs.
type MenuFetcher interface {
	GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error)
}

// FetchMenus loads the menus of all venues concurrently. Items keep venue order, then menu order,
// and each carries the id of the venue it came from.
func FetchMenus(ctx context.Context, src MenuFetcher, venues []models.Venue, concurrency int) ([]models.MenuItem, error) {
	menus := make([][]models.MenuItem, len(venues))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, venue := range venues {
		g.Go(func() error {
			items, err := src.GetMenu(gctx, venue.StoreID)
			if err != nil {
				return fmt.Errorf("menu of venue %s: %w", venue.StoreID, err)
			}
			tagged := make([]models.MenuItem, len(items))
			for j, item := range items {
				item.VenueID = venue.StoreID
				tagged[j] = item
			}
			menus[i] = tagged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.MenuItem
	for _, items := range menus {
		all = append(all, items...)
	}
	return all, nil
}

func validateOrder(order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", ErrInvalidOrder)
	}
	if len(order.OrderDetails.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}
	return nil
}
