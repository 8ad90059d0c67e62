package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"food-ordering-agent/pkg/catalogfile"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const venueMapping = `{
  "mappings": {
    "properties": {
      "store_id": {"type": "keyword"},
      "name": {"type": "text"},
      "address": {"type": "text"},
      "category_ids": {"type": "keyword"},
      "proximity": {"type": "float"},
      "service_availability": {"type": "object", "enabled": false}
    }
  }
}`

const menuMapping = `{
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "venue_id": {"type": "keyword"},
      "title": {"type": "text"},
      "subtitle": {"type": "text"},
      "ingredients": {"type": "text"},
      "price": {"type": "float"},
      "category": {"type": "keyword"}
    }
  }
}`

type indexer struct {
	client     *elasticsearch.Client
	venueIndex string
	menuIndex  string
}

type indexStats struct {
	Venues int
	Items  int
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// Run creates both indices when missing and bulk-loads the catalog with a refresh.
func (ix *indexer) Run(ctx context.Context, cat *catalogfile.Catalog, recreate bool) (*indexStats, error) {
	if recreate {
		if err := ix.deleteIndex(ctx, ix.venueIndex); err != nil {
			return nil, err
		}
		if err := ix.deleteIndex(ctx, ix.menuIndex); err != nil {
			return nil, err
		}
	}
	if err := ix.createIndex(ctx, ix.venueIndex, venueMapping); err != nil {
		return nil, err
	}
	if err := ix.createIndex(ctx, ix.menuIndex, menuMapping); err != nil {
		return nil, err
	}

	body, stats, err := ix.bulkBody(cat)
	if err != nil {
		return nil, err
	}
	if stats.Venues+stats.Items == 0 {
		return stats, nil
	}

	req := esapi.BulkRequest{Body: body, Refresh: "true"}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return nil, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("bulk request: %s", res.String())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		return nil, firstBulkError(parsed)
	}
	return stats, nil
}

// bulkBody renders the NDJSON payload: venues keyed by store id, items by venue and item id.
func (ix *indexer) bulkBody(cat *catalogfile.Catalog) (io.Reader, *indexStats, error) {
	var buf bytes.Buffer
	stats := &indexStats{}

	write := func(index, id string, doc interface{}) error {
		meta := map[string]map[string]string{"index": {"_index": index, "_id": id}}
		for _, v := range []interface{}{meta, doc} {
			line, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", index, id, err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return nil
	}

	for _, venue := range cat.Venues {
		if err := write(ix.venueIndex, venue.StoreID, venue); err != nil {
			return nil, nil, err
		}
		stats.Venues++
	}

	venueIDs := make([]string, 0, len(cat.Menus))
	for id := range cat.Menus {
		venueIDs = append(venueIDs, id)
	}
	sort.Strings(venueIDs)
	for _, venueID := range venueIDs {
		for _, item := range cat.Menus[venueID] {
			if err := write(ix.menuIndex, venueID+":"+item.ID, item); err != nil {
				return nil, nil, err
			}
			stats.Items++
		}
	}
	return &buf, stats, nil
}

func (ix *indexer) createIndex(ctx context.Context, name, mapping string) error {
	req := esapi.IndicesCreateRequest{Index: name, Body: strings.NewReader(mapping)}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("create index %s: %s %s", name, res.Status(), body)
	}
	return nil
}

func (ix *indexer) deleteIndex(ctx context.Context, name string) error {
	req := esapi.IndicesDeleteRequest{Index: []string{name}}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete index %s: %s", name, res.Status())
	}
	return nil
}

func firstBulkError(resp bulkResponse) error {
	failed := 0
	var first string
	for _, item := range resp.Items {
		for _, result := range item {
			if result.Error == nil {
				continue
			}
			failed++
			if first == "" {
				first = fmt.Sprintf("%s: %s", result.Error.Type, result.Error.Reason)
			}
		}
	}
	return fmt.Errorf("bulk indexing failed for %d documents, first: %s", failed, first)
}
