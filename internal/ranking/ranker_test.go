package ranking

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	venues   []models.Venue
	menus    map[string][]models.MenuItem
	venueErr error
	radius   float64
	address  string
}

func (s *stubCatalog) GetNearbyVenues(_ context.Context, address string, radius float64) ([]models.Venue, error) {
	s.address, s.radius = address, radius
	return s.venues, s.venueErr
}

func (s *stubCatalog) GetMenu(_ context.Context, venueID string) ([]models.MenuItem, error) {
	return s.menus[venueID], nil
}

var keywords = []string{"pizza", "ramen", "salad"}

// keywordEmbedder counts keyword occurrences, plus a constant dimension.
type keywordEmbedder struct {
	err        error
	batchCalls int
}

func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if k.err != nil {
		return nil, k.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(keywords)+1)
	for i, kw := range keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	vec[len(keywords)] = 1
	return vec, nil
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	k.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := k.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func fixtureCatalog() *stubCatalog {
	return &stubCatalog{
		venues: []models.Venue{{StoreID: "v1", Proximity: 1}, {StoreID: "v2", Proximity: 2}},
		menus: map[string][]models.MenuItem{
			"v1": {
				{ID: "p1", Title: "Pizza Diavola", Price: 25},
				{ID: "p2", Title: "Pizza Margherita", Price: 15},
			},
			"v2": {
				{ID: "r1", Title: "Ramen", Price: 12},
				{ID: "s1", Title: "Salad", Price: 8},
			},
		},
	}
}

func TestRanker_Rank(t *testing.T) {
	tests := []struct {
		name        string
		preferences []string
		budget      float64
		wantID      string
	}{
		{name: "closest item within budget", preferences: []string{"ramen"}, budget: 20, wantID: "r1"},
		{name: "expensive match filtered out", preferences: []string{"pizza"}, budget: 20, wantID: "p2"},
		{name: "budget excludes preferred dish", preferences: []string{"ramen"}, budget: 10, wantID: "s1"},
		{name: "preferences are joined", preferences: []string{"i like", "salad"}, budget: 100, wantID: "s1"},
		{name: "budget equal to price is allowed", preferences: []string{"ramen"}, budget: 12, wantID: "r1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := fixtureCatalog()
			r := NewRanker(DefaultConfig(), cat, &keywordEmbedder{}, logger.NewTestLogger(t))

			order, err := r.Rank(context.Background(), "1 Main St", tt.preferences, tt.budget)
			require.NoError(t, err)
			require.NotNil(t, order)
			require.Len(t, order.Items, 1)
			assert.Equal(t, tt.wantID, order.Items[0].ID)
			assert.Equal(t, order.Items[0].Price, order.TotalPrice)
			assert.LessOrEqual(t, order.TotalPrice, tt.budget)
			assert.Equal(t, "1 Main St", order.Address)
			assert.Equal(t, 5.0, cat.radius)
		})
	}
}

func TestRanker_NoCandidate(t *testing.T) {
	r := NewRanker(DefaultConfig(), fixtureCatalog(), &keywordEmbedder{}, logger.NewNoOpLogger())
	order, err := r.Rank(context.Background(), "x", []string{"ramen"}, 5)
	require.NoError(t, err)
	assert.Nil(t, order)

	empty := &stubCatalog{}
	embedder := &keywordEmbedder{}
	r = NewRanker(DefaultConfig(), empty, embedder, logger.NewNoOpLogger())
	order, err = r.Rank(context.Background(), "x", []string{"ramen"}, 50)
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Zero(t, embedder.batchCalls)
}

func TestRanker_TieKeepsRetrievalOrder(t *testing.T) {
	cat := &stubCatalog{
		venues: []models.Venue{{StoreID: "v1"}, {StoreID: "v2"}},
		menus: map[string][]models.MenuItem{
			"v1": {{ID: "first", Title: "Pizza", Price: 10}},
			"v2": {{ID: "second", Title: "Pizza", Price: 9}},
		},
	}
	r := NewRanker(DefaultConfig(), cat, &keywordEmbedder{}, logger.NewNoOpLogger())

	for i := 0; i < 3; i++ {
		order, err := r.Rank(context.Background(), "x", []string{"pizza"}, 20)
		require.NoError(t, err)
		assert.Equal(t, "first", order.Items[0].ID)
		assert.Equal(t, "v1", order.Items[0].VenueID)
	}
}

func TestRanker_FilterAppliesBeforeTopK(t *testing.T) {
	menu := make([]models.MenuItem, 0, 8)
	for i := 0; i < 7; i++ {
		menu = append(menu, models.MenuItem{ID: fmt.Sprintf("p%d", i), Title: "Pizza", Price: 50})
	}
	menu = append(menu, models.MenuItem{ID: "cheap", Title: "Salad", Price: 5})

	cat := &stubCatalog{venues: []models.Venue{{StoreID: "v1"}}, menus: map[string][]models.MenuItem{"v1": menu}}
	r := NewRanker(DefaultConfig(), cat, &keywordEmbedder{}, logger.NewNoOpLogger())

	order, err := r.Rank(context.Background(), "x", []string{"pizza"}, 10)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "cheap", order.Items[0].ID)
}

func TestRanker_Errors(t *testing.T) {
	cat := fixtureCatalog()
	cat.venueErr = fmt.Errorf("catalog down")
	r := NewRanker(DefaultConfig(), cat, &keywordEmbedder{}, logger.NewNoOpLogger())
	_, err := r.Rank(context.Background(), "x", []string{"ramen"}, 20)
	assert.ErrorIs(t, err, ErrVenueLookup)

	r = NewRanker(DefaultConfig(), fixtureCatalog(), &keywordEmbedder{err: fmt.Errorf("embed down")}, logger.NewNoOpLogger())
	_, err = r.Rank(context.Background(), "x", []string{"ramen"}, 20)
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestItemDocument(t *testing.T) {
	doc := itemDocument(models.MenuItem{ID: "r1", VenueID: "v2", Title: "Ramen", Price: 12})
	assert.Contains(t, doc, `"venue_id":"v2"`)
	assert.Contains(t, doc, `"title":"Ramen"`)
}
