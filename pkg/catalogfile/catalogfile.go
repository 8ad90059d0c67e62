// Package catalogfile reads and writes venue/menu fixtures used by the mock catalog
// and the Elasticsearch indexer.
package catalogfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"food-ordering-agent/internal/models"

	"gopkg.in/yaml.v3"
)

// Catalog is the fixture layout: venues plus menus keyed by store id.
type Catalog struct {
	Version string                       `json:"version,omitempty" yaml:"version,omitempty"`
	Venues  []models.Venue               `json:"venues" yaml:"venues"`
	Menus   map[string][]models.MenuItem `json:"menus" yaml:"menus"`
}

// Load reads a catalog fixture. Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// Menu items are tagged with the venue id they are listed under.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cat Catalog
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cat)
	} else {
		err = json.Unmarshal(data, &cat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	if cat.Menus == nil {
		cat.Menus = make(map[string][]models.MenuItem)
	}
	for venueID, items := range cat.Menus {
		for i := range items {
			items[i].VenueID = venueID
		}
	}
	return &cat, nil
}

// Save writes the catalog back in the format implied by the extension.
func Save(path string, cat *Catalog) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cat)
	} else {
		data, err = json.MarshalIndent(cat, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create catalog dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Venue returns the venue with the given store id.
func (c *Catalog) Venue(storeID string) (models.Venue, bool) {
	for _, v := range c.Venues {
		if v.StoreID == storeID {
			return v, true
		}
	}
	return models.Venue{}, false
}

// Validate reports every structural problem in the fixture.
func (c *Catalog) Validate() []string {
	var problems []string
	seen := make(map[string]bool, len(c.Venues))

	for i, v := range c.Venues {
		if v.StoreID == "" {
			problems = append(problems, fmt.Sprintf("venues[%d]: store_id is empty", i))
			continue
		}
		if seen[v.StoreID] {
			problems = append(problems, fmt.Sprintf("venues[%d]: duplicate store_id %s", i, v.StoreID))
		}
		seen[v.StoreID] = true
		if v.Proximity < 0 {
			problems = append(problems, fmt.Sprintf("venue %s: negative proximity", v.StoreID))
		}
	}

	for venueID, items := range c.Menus {
		if !seen[venueID] {
			problems = append(problems, fmt.Sprintf("menu %s: no such venue", venueID))
		}
		ids := make(map[string]bool, len(items))
		for i, item := range items {
			if item.ID == "" {
				problems = append(problems, fmt.Sprintf("menu %s item %d: id is empty", venueID, i))
			} else if ids[item.ID] {
				problems = append(problems, fmt.Sprintf("menu %s: duplicate item id %s", venueID, item.ID))
			}
			ids[item.ID] = true
			if item.Price < 0 {
				problems = append(problems, fmt.Sprintf("menu %s item %s: negative price", venueID, item.ID))
			}
		}
	}
	return problems
}

// ItemCount returns the number of menu items across all venues.
func (c *Catalog) ItemCount() int {
	n := 0
	for _, items := range c.Menus {
		n += len(items)
	}
	return n
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
