// Package ranking picks the single menu item that best fits a preference within a budget.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"food-ordering-agent/internal/catalog"
	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/internal/vectorindex"
)

var (
	ErrVenueLookup = errors.New("VENUE_LOOKUP_FAILED")
	ErrMenuLookup  = errors.New("MENU_LOOKUP_FAILED")
	ErrEmbedding   = errors.New("EMBEDDING_FAILED")
)

// Catalog is the read side of the catalog service.
type Catalog interface {
	GetNearbyVenues(ctx context.Context, address string, radius float64) ([]models.Venue, error)
	GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Config struct {
	Radius           float64
	TopK             int
	FetchConcurrency int
}

func DefaultConfig() Config {
	return Config{Radius: config.DefaultSearchRadius, TopK: config.DefaultTopK, FetchConcurrency: 8}
}

type Ranker struct {
	config   Config
	catalog  Catalog
	embedder Embedder
	logger   logger.Logger
}

func NewRanker(cfg Config, cat Catalog, embedder Embedder, log logger.Logger) *Ranker {
	if cfg.Radius <= 0 {
		cfg.Radius = config.DefaultSearchRadius
	}
	if cfg.TopK <= 0 {
		cfg.TopK = config.DefaultTopK
	}
	return &Ranker{
		config:   cfg,
		catalog:  cat,
		embedder: embedder,
		logger:   logger.Component(log, "item-ranker"),
	}
}

// Rank proposes one item from venues near address. It returns nil without an error when
// nothing within budget is found. The index is rebuilt on every call.
func (r *Ranker) Rank(ctx context.Context, address string, preferences []string, budget float64) (*models.OrderDetails, error) {
	venues, err := r.catalog.GetNearbyVenues(ctx, address, r.config.Radius)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVenueLookup, err)
	}

	items, err := catalog.FetchMenus(ctx, r.catalog, venues, r.config.FetchConcurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMenuLookup, err)
	}
	metrics.SearchCandidates.Observe(float64(len(items)))

	if len(items) == 0 {
		r.logger.Info("no menu items near address", map[string]interface{}{
			"venues": len(venues),
		})
		return nil, nil
	}

	docs := make([]string, len(items))
	for i, item := range items {
		docs[i] = itemDocument(item)
	}
	vectors, err := r.embedder.EmbedBatch(ctx, docs)
	metrics.ObserveCall("embedding", "embedBatch", err)
	if err != nil {
		return nil, fmt.Errorf("%w: menu items: %w", ErrEmbedding, err)
	}
	if len(vectors) != len(items) {
		return nil, fmt.Errorf("%w: got %d vectors for %d items", ErrEmbedding, len(vectors), len(items))
	}

	index := vectorindex.New[models.MenuItem](len(items))
	for i, item := range items {
		if err := index.Add(item, vectors[i]); err != nil {
			return nil, fmt.Errorf("%w: item %s: %w", ErrEmbedding, item.ID, err)
		}
	}

	combined := strings.Join(preferences, " ")
	query, err := r.embedder.Embed(ctx, combined)
	metrics.ObserveCall("embedding", "embed", err)
	if err != nil {
		return nil, fmt.Errorf("%w: preferences: %w", ErrEmbedding, err)
	}

	results, err := index.Search(query, r.config.TopK, func(item models.MenuItem) bool {
		return item.Price <= budget
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrEmbedding, err)
	}

	for _, res := range results {
		r.logger.Debug("candidate", map[string]interface{}{
			"distance": res.Distance,
			"title":    res.Payload.Title,
			"price":    res.Payload.Price,
		})
	}

	if len(results) == 0 {
		r.logger.Info("no item within budget", map[string]interface{}{
			"budget":     budget,
			"candidates": len(items),
		})
		return nil, nil
	}

	top := results[0].Payload
	r.logger.Info("item selected", map[string]interface{}{
		"itemId":  top.ID,
		"venueId": top.VenueID,
		"price":   top.Price,
	})
	return models.NewOrderDetails(address, top), nil
}

// itemDocument is the text embedded for an item: its JSON form.
func itemDocument(item models.MenuItem) string {
	data, err := json.Marshal(item)
	if err != nil {
		return item.Title
	}
	return string(data)
}
