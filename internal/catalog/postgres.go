package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"

	"github.com/google/uuid"
)

const (
	createOrdersTable = `CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	address     TEXT NOT NULL,
	total_price NUMERIC(10,2) NOT NULL,
	items       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

	insertOrder = `INSERT INTO orders (id, status, address, total_price, items, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	selectOrder = `SELECT id, status, address, total_price, items FROM orders WHERE id = $1`
)

// PostgresOrderBook stores orders in the orders table. Payment details never reach the database.
type PostgresOrderBook struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresOrderBook(db *sql.DB, log logger.Logger) *PostgresOrderBook {
	return &PostgresOrderBook{db: db, logger: logger.Component(log, "postgres-order-book")}
}

// EnsureSchema creates the orders table when missing.
func (b *PostgresOrderBook) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("%w: create orders table: %v", ErrOrderStoreFailed, err)
	}
	return nil
}

func (b *PostgresOrderBook) BookOrder(ctx context.Context, order *models.Order) (string, error) {
	if err := validateOrder(order); err != nil {
		return "", err
	}

	items, err := json.Marshal(order.OrderDetails.Items)
	if err != nil {
		return "", fmt.Errorf("%w: encode items: %v", ErrOrderStoreFailed, err)
	}

	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = b.db.ExecContext(ctx, insertOrder,
		id,
		models.OrderStatusAccepted,
		order.OrderDetails.Address,
		order.OrderDetails.TotalPrice,
		items,
		time.Now().UTC(),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrOrderStoreFailed, err)
	}

	b.logger.Info("order booked", map[string]interface{}{
		"orderId":    id,
		"itemCount":  len(order.OrderDetails.Items),
		"totalPrice": order.OrderDetails.TotalPrice,
	})
	return id, nil
}

func (b *PostgresOrderBook) CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error) {
	var (
		status models.OrderStatus
		items  []byte
	)
	err := b.db.QueryRowContext(ctx, selectOrder, orderID).
		Scan(&status.ID, &status.Status, &status.Address, &status.TotalPrice, &items)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.OrderStatus{ID: orderID, Status: models.OrderStatusNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderStoreFailed, err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &status.Items); err != nil {
			return nil, fmt.Errorf("%w: decode items: %v", ErrOrderStoreFailed, err)
		}
	}
	return &status, nil
}

func (b *PostgresOrderBook) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
