package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	maxVenueHits = 200
	maxMenuHits  = 500
)

// ESVenueSource reads venues and menus from two Elasticsearch indices.
type ESVenueSource struct {
	client     *elasticsearch.Client
	venueIndex string
	menuIndex  string
	logger     logger.Logger
}

func NewESVenueSource(client *elasticsearch.Client, venueIndex, menuIndex string, log logger.Logger) *ESVenueSource {
	return &ESVenueSource{
		client:     client,
		venueIndex: venueIndex,
		menuIndex:  menuIndex,
		logger:     logger.Component(log, "es-catalog"),
	}
}

// GetNearbyVenues returns venues with proximity within radius, nearest first.
func (s *ESVenueSource) GetNearbyVenues(ctx context.Context, address string, radius float64) ([]models.Venue, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"range": map[string]interface{}{
							"proximity": map[string]interface{}{"lte": radius},
						},
					},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"proximity": "asc"},
			map[string]interface{}{"store_id": "asc"},
		},
	}

	var venues []models.Venue
	if err := s.search(ctx, s.venueIndex, query, maxVenueHits, &venues); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVenueLookupFailed, err)
	}

	s.logger.Debug("nearby venues", map[string]interface{}{
		"address": address,
		"radius":  radius,
		"count":   len(venues),
	})
	return venues, nil
}

// GetMenu returns a venue's items in id order.
func (s *ESVenueSource) GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"venue_id": venueID},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
	}

	var items []models.MenuItem
	if err := s.search(ctx, s.menuIndex, query, maxMenuHits, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMenuLookupFailed, err)
	}
	return items, nil
}

func (s *ESVenueSource) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// search runs the query and decodes every hit's _source into out, which must point to a slice.
func (s *ESVenueSource) search(ctx context.Context, index string, query map[string]interface{}, size int, out interface{}) error {
	body, err := json.Marshal(query)
	if err != nil {
		return err
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search %s failed: %s", index, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode search response: %w", err)
	}

	sources := make([]json.RawMessage, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		sources[i] = hit.Source
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode hits: %w", err)
	}
	return nil
}
