package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/database"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/pkg/catalogfile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalogfile.Catalog {
	return &catalogfile.Catalog{
		Venues: []models.Venue{
			{StoreID: "near", Name: "Near", Proximity: 1},
			{StoreID: "edge", Name: "Edge", Proximity: 5},
			{StoreID: "far", Name: "Far", Proximity: 9},
		},
		Menus: map[string][]models.MenuItem{
			"near": {{ID: "n1", Title: "Pizza", Price: 12}, {ID: "n2", Title: "Pasta", Price: 9}},
			"edge": {{ID: "e1", Title: "Ramen", Price: 15}},
			"far":  {{ID: "f1", Title: "Sushi", Price: 30}},
		},
	}
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderDetails:   *models.NewOrderDetails("1 Main St", models.MenuItem{ID: "n1", VenueID: "near", Title: "Pizza", Price: 12}),
		PaymentDetails: models.CCDetails{CCNumber: "4111111111111111", CVV: "123", Expiry: "12/30"},
	}
}

func TestFileVenueSource(t *testing.T) {
	src := NewFileVenueSourceFromCatalog(testCatalog(), logger.NewTestLogger(t))
	ctx := context.Background()

	venues, err := src.GetNearbyVenues(ctx, "anywhere", config.DefaultSearchRadius)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "near", venues[0].StoreID)
	assert.Equal(t, "edge", venues[1].StoreID)

	items, err := src.GetMenu(ctx, "near")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = src.GetMenu(ctx, "ghost")
	assert.ErrorIs(t, err, ErrMenuLookupFailed)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.GetNearbyVenues(cancelled, "x", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileVenueSource_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, catalogfile.Save(path, testCatalog()))

	src, err := NewFileVenueSource(path, logger.NewNoOpLogger())
	require.NoError(t, err)
	items, err := src.GetMenu(context.Background(), "edge")
	require.NoError(t, err)
	assert.Equal(t, "edge", items[0].VenueID)

	bad := &catalogfile.Catalog{Venues: []models.Venue{{StoreID: "a"}, {StoreID: "a"}}}
	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, catalogfile.Save(badPath, bad))
	_, err = NewFileVenueSource(badPath, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "is invalid")
}

func TestFileOrderBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmp", "orders.json")
	ctx := context.Background()

	book, err := NewFileOrderBook(path, logger.NewTestLogger(t))
	require.NoError(t, err)

	id, err := book.BookOrder(ctx, sampleOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	status, err := book.CheckOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, status.Status)
	assert.Equal(t, 12.0, status.TotalPrice)

	missing, err := book.CheckOrder(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNotFound, missing.Status)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "4111111111111111")
	assert.NotContains(t, string(raw), "cvv")

	reopened, err := NewFileOrderBook(path, logger.NewNoOpLogger())
	require.NoError(t, err)
	status, err = reopened.CheckOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, status.Status)

	_, err = book.BookOrder(ctx, &models.Order{})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestNewFileOrderBook_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := NewFileOrderBook(path, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, ErrOrderStoreFailed)
}

type fakeES struct {
	t        *testing.T
	venues   string
	menus    map[string]string
	status   int
	lastBody atomic.Value
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if f.status != 0 {
		w.WriteHeader(f.status)
		io.WriteString(w, `{"error":"boom"}`)
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.lastBody.Store(string(body))

	switch r.URL.Path {
	case "/":
		io.WriteString(w, `{"version":{"number":"8.11.0"},"tagline":"You Know, for Search"}`)
	case "/venues/_search":
		io.WriteString(w, f.venues)
	case "/menus/_search":
		var q struct {
			Query struct {
				Term map[string]string `json:"term"`
			} `json:"query"`
		}
		if !assert.NoError(f.t, json.Unmarshal(body, &q)) {
			return
		}
		io.WriteString(w, f.menus[q.Query.Term["venue_id"]])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func hitsOf(sources ...string) string {
	hits := ""
	for i, s := range sources {
		if i > 0 {
			hits += ","
		}
		hits += fmt.Sprintf(`{"_index":"x","_id":"%d","_source":%s}`, i, s)
	}
	return fmt.Sprintf(`{"took":1,"hits":{"total":{"value":%d},"hits":[%s]}}`, len(sources), hits)
}

func newESSource(t *testing.T, fake *fakeES) *ESVenueSource {
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewESVenueSource(client.Client, "venues", "menus", logger.NewTestLogger(t))
}

func TestESVenueSource(t *testing.T) {
	fake := &fakeES{
		t: t,
		venues: hitsOf(
			`{"store_id":"v1","name":"Pizza Place","proximity":1.2}`,
			`{"store_id":"v2","name":"Noodle Bar","proximity":3.4}`,
		),
		menus: map[string]string{
			"v1": hitsOf(`{"id":"m1","venue_id":"v1","title":"Margherita","price":12.5}`),
		},
	}
	src := newESSource(t, fake)
	ctx := context.Background()

	venues, err := src.GetNearbyVenues(ctx, "1 Main St", 5)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "v1", venues[0].StoreID)
	assert.Equal(t, 3.4, venues[1].Proximity)

	body, _ := fake.lastBody.Load().(string)
	assert.Contains(t, body, `"range":{"proximity":{"lte":5}}`)
	assert.Contains(t, body, `{"store_id":"asc"}`)

	items, err := src.GetMenu(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Margherita", items[0].Title)

	require.NoError(t, src.Ping(ctx))
}

func TestESVenueSource_ErrorResponse(t *testing.T) {
	src := newESSource(t, &fakeES{t: t, status: http.StatusInternalServerError})

	_, err := src.GetNearbyVenues(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrVenueLookupFailed)

	_, err = src.GetMenu(context.Background(), "v1")
	assert.ErrorIs(t, err, ErrMenuLookupFailed)
}

func TestPostgresOrderBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := NewPostgresOrderBook(db, logger.NewTestLogger(t))
	ctx := context.Background()

	t.Run("ensure schema", func(t *testing.T) {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS orders").WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, book.EnsureSchema(ctx))
	})

	t.Run("book order", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).
			WithArgs(sqlmock.AnyArg(), models.OrderStatusAccepted, "1 Main St", 12.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		id, err := book.BookOrder(ctx, sampleOrder())
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("book order failure", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnError(fmt.Errorf("connection reset"))

		_, err := book.BookOrder(ctx, sampleOrder())
		assert.ErrorIs(t, err, ErrOrderStoreFailed)
	})

	t.Run("check order", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "status", "address", "total_price", "items"}).
			AddRow("o1", "accepted", "1 Main St", 12.0, []byte(`[{"id":"n1","venue_id":"near","title":"Pizza","price":12}]`))
		mock.ExpectQuery(regexp.QuoteMeta(selectOrder)).WithArgs("o1").WillReturnRows(rows)

		status, err := book.CheckOrder(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, "accepted", status.Status)
		require.Len(t, status.Items, 1)
		assert.Equal(t, "Pizza", status.Items[0].Title)
	})

	t.Run("check unknown order", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(selectOrder)).WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "address", "total_price", "items"}))

		status, err := book.CheckOrder(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusNotFound, status.Status)
	})

	t.Run("check order failure", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(selectOrder)).WithArgs("o2").WillReturnError(sql.ErrConnDone)

		_, err := book.CheckOrder(ctx, "o2")
		assert.ErrorIs(t, err, ErrOrderStoreFailed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

type menuStub struct {
	delays map[string]time.Duration
	fail   string
}

func (m *menuStub) GetMenu(ctx context.Context, venueID string) ([]models.MenuItem, error) {
	if venueID == m.fail {
		return nil, fmt.Errorf("venue %s down", venueID)
	}
	select {
	case <-time.After(m.delays[venueID]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []models.MenuItem{{ID: venueID + "-1"}, {ID: venueID + "-2"}}, nil
}

func TestFetchMenus(t *testing.T) {
	venues := []models.Venue{{StoreID: "a"}, {StoreID: "b"}, {StoreID: "c"}}
	stub := &menuStub{delays: map[string]time.Duration{"a": 30 * time.Millisecond, "b": 0, "c": 10 * time.Millisecond}}

	items, err := FetchMenus(context.Background(), stub, venues, 2)
	require.NoError(t, err)

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
		assert.Equal(t, item.ID[:1], item.VenueID)
	}
	assert.Equal(t, []string{"a-1", "a-2", "b-1", "b-2", "c-1", "c-2"}, ids)

	_, err = FetchMenus(context.Background(), &menuStub{fail: "b"}, venues, 0)
	assert.ErrorContains(t, err, "menu of venue b")

	items, err = FetchMenus(context.Background(), stub, nil, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

type slowSource struct{ FileVenueSource }

func (s *slowSource) GetNearbyVenues(ctx context.Context, _ string, _ float64) ([]models.Venue, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestService_TimeoutAndPing(t *testing.T) {
	book, err := NewFileOrderBook(filepath.Join(t.TempDir(), "orders.json"), logger.NewNoOpLogger())
	require.NoError(t, err)

	svc := NewService(&slowSource{}, book, 20*time.Millisecond)
	_, err = svc.GetNearbyVenues(context.Background(), "x", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, svc.Ping(context.Background()))

	status, err := svc.CheckOrder(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNotFound, status.Status)
}

func TestNew_FromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, catalogfile.Save(path, testCatalog()))

	cfg := &config.Config{}
	cfg.Catalog.Backend = "file"
	cfg.Catalog.FilePath = path
	cfg.Orders.Backend = "file"
	cfg.Orders.FilePath = filepath.Join(t.TempDir(), "orders.json")

	svc, err := New(context.Background(), cfg, Backends{}, logger.NewNoOpLogger())
	require.NoError(t, err)
	venues, err := svc.GetNearbyVenues(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Len(t, venues, 2)

	cfg.Catalog.Backend = "elasticsearch"
	_, err = New(context.Background(), cfg, Backends{}, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "needs an elasticsearch client")

	cfg.Catalog.Backend = "file"
	cfg.Orders.Backend = "postgres"
	_, err = New(context.Background(), cfg, Backends{}, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "needs a postgres client")
}
