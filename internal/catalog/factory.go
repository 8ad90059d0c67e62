package catalog

import (
	"context"
	"fmt"

	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/database"
	"food-ordering-agent/internal/common/logger"
)

// Backends carries the shared clients the configured backends may need. Unused ones may be nil.
type Backends struct {
	Elasticsearch *database.ElasticsearchClient
	Postgres      *database.PostgresClient
}

// New builds the catalog service selected by cfg.Catalog.Backend and cfg.Orders.Backend.
func New(ctx context.Context, cfg *config.Config, backends Backends, log logger.Logger) (Service, error) {
	var venues VenueSource
	switch cfg.Catalog.Backend {
	case "file":
		src, err := NewFileVenueSource(cfg.Catalog.FilePath, log)
		if err != nil {
			return nil, err
		}
		venues = src
	case "elasticsearch":
		if backends.Elasticsearch == nil {
			return nil, fmt.Errorf("elasticsearch catalog backend needs an elasticsearch client")
		}
		venues = NewESVenueSource(backends.Elasticsearch.Client, cfg.Catalog.VenueIndex, cfg.Catalog.MenuIndex, log)
	default:
		return nil, fmt.Errorf("unsupported catalog backend: %s", cfg.Catalog.Backend)
	}

	var orders OrderBook
	switch cfg.Orders.Backend {
	case "file":
		book, err := NewFileOrderBook(cfg.Orders.FilePath, log)
		if err != nil {
			return nil, err
		}
		orders = book
	case "postgres":
		if backends.Postgres == nil {
			return nil, fmt.Errorf("postgres order backend needs a postgres client")
		}
		book := NewPostgresOrderBook(backends.Postgres.DB, log)
		if err := book.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		orders = book
	default:
		return nil, fmt.Errorf("unsupported orders backend: %s", cfg.Orders.Backend)
	}

	return NewService(venues, orders, config.GetDuration(cfg.Catalog.Timeout)), nil
}
