package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/firestore"
)

type fakeDocs struct {
	mu        sync.Mutex
	created   map[string][]map[string]firestore.Value
	createErr error
	queries   []firestore.StructuredQuery
	results   []firestore.Document
	queryErr  error
	patched   []string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{created: map[string][]map[string]firestore.Value{}}
}

func (f *fakeDocs) CreateDocument(_ context.Context, collection string, fields map[string]firestore.Value) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created[collection] = append(f.created[collection], fields)
	return "doc-1", nil
}

func (f *fakeDocs) RunQuery(_ context.Context, q firestore.StructuredQuery) ([]firestore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.results, f.queryErr
}

func (f *fakeDocs) PatchDocument(_ context.Context, collection, id string, _ map[string]firestore.Value, mask []string) (*firestore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patched = append(f.patched, collection+"/"+id)
	f.patched = append(f.patched, mask...)
	return &firestore.Document{Name: collection + "/" + id}, nil
}

func logDoc(id, ts, name string, itemID firestore.Value) firestore.Document {
	return firestore.Document{
		Name: "projects/p/databases/(default)/documents/logs/" + id,
		Fields: map[string]firestore.Value{
			"requestType": firestore.String("Rettifica"),
			"timestamp":   firestore.String(ts),
			"data": firestore.Map(map[string]firestore.Value{
				"id":                firestore.String("42"),
				"variant":           firestore.String("M"),
				"negozio":           firestore.String("Treviso"),
				"inventory_item_id": itemID,
				"nome":              firestore.String(name),
				"prezzo":            firestore.String("19.90"),
				"rettifica":         firestore.Integer(-1),
				"images":            firestore.Strings([]string{"a.jpg"}),
			}),
		},
	}
}

func TestRecordWritesStoredShape(t *testing.T) {
	docs := newFakeDocs()
	store := NewStore(docs, zap.NewNop(), nil)

	id, err := store.Record(context.Background(), LogEntry{
		RequestType: RequestTransfer,
		Timestamp:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Data: LogData{
			ProductID:       "42",
			Variant:         "M",
			Location:        "Treviso",
			InventoryItemID: "77",
			Name:            "Cappello",
			Price:           decimal.RequireFromString("19.9"),
			Delta:           -1,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	fields := docs.created["logs"][0]
	rt, _ := fields["requestType"].AsString()
	assert.Equal(t, "Trasferimento", rt)
	ts, _ := fields["timestamp"].AsString()
	assert.Equal(t, "2025-03-01T10:00:00Z", ts)

	data, ok := fields["data"].AsMap()
	require.True(t, ok)
	delta, _ := data["rettifica"].AsInteger()
	assert.Equal(t, int64(-1), delta)
	price, _ := data["prezzo"].AsString()
	assert.Equal(t, "19.90", price)
	loc, _ := data["negozio"].AsString()
	assert.Equal(t, "Treviso", loc)
	images, ok := data["images"].AsArray()
	assert.True(t, ok)
	assert.Empty(t, images)
}

func TestRecordOpensBreakerAfterRepeatedFailures(t *testing.T) {
	docs := newFakeDocs()
	docs.createErr = errors.New("unavailable")
	store := NewStore(docs, zap.NewNop(), nil)

	for i := 0; i < breakerThreshold; i++ {
		_, err := store.Record(context.Background(), LogEntry{RequestType: RequestAdjustment})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	}

	_, err := store.Record(context.Background(), LogEntry{RequestType: RequestAdjustment})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestLogsInRangeDecodesSortsAndFilters(t *testing.T) {
	docs := newFakeDocs()
	docs.results = []firestore.Document{
		logDoc("old", "2025-03-01T09:00:00+01:00", "Cappello Lana", firestore.String("77")),
		logDoc("new", "2025-03-02T09:00:00+01:00", "Cappello Feltro", firestore.Integer(78)),
		logDoc("other", "2025-03-02T10:00:00+01:00", "Sciarpa", firestore.String("79")),
		{Name: "x/logs/broken", Fields: map[string]firestore.Value{"requestType": firestore.String("Rettifica")}},
	}
	store := NewStore(docs, zap.NewNop(), nil)

	entries, err := store.LogsInRange(context.Background(), "Treviso", "2025-03-01", "2025-03-02", "cappello")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "new", entries[0].ID)
	assert.Equal(t, "78", entries[0].Data.InventoryItemID)
	assert.Equal(t, "old", entries[1].ID)
	assert.Equal(t, -1, entries[1].Data.Delta)
	assert.Equal(t, "19.9", entries[1].Data.Price.String())

	q := docs.queries[0]
	assert.Equal(t, "logs", q.From[0].CollectionID)
	assert.Equal(t, 500, q.Limit)
	assert.Len(t, q.Where.CompositeFilter.Filters, 3)
	end, _ := q.Where.CompositeFilter.Filters[1].FieldFilter.Value.AsString()
	assert.Equal(t, "2025-03-02\uffff", end)
}

func TestLogsForProductAddsProductFilter(t *testing.T) {
	docs := newFakeDocs()
	store := NewStore(docs, zap.NewNop(), nil)

	_, err := store.LogsForProduct(context.Background(), "42", "Mogliano", "2025-03-01", "2025-03-07")
	require.NoError(t, err)

	filters := docs.queries[0].Where.CompositeFilter.Filters
	require.Len(t, filters, 4)
	assert.Equal(t, "data.id", filters[3].FieldFilter.Field.FieldPath)
}

func TestLogsInRangeValidatesDates(t *testing.T) {
	store := NewStore(newFakeDocs(), zap.NewNop(), nil)

	_, err := store.LogsInRange(context.Background(), "Treviso", "2025-03-05", "2025-03-01", "")
	assert.Error(t, err)
	_, err = store.LogsInRange(context.Background(), "Treviso", "yesterday", "2025-03-01", "")
	assert.Error(t, err)
}

func TestLogsForDayUsesLocalDate(t *testing.T) {
	docs := newFakeDocs()
	store := NewStore(docs, zap.NewNop(), nil)
	store.loc = time.FixedZone("CET", 3600)

	_, err := store.LogsForDay(context.Background(), "Treviso", "", time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	start, _ := docs.queries[0].Where.CompositeFilter.Filters[0].FieldFilter.Value.AsString()
	assert.Equal(t, "2025-03-02", start)
	assert.Equal(t, 100, docs.queries[0].Limit)
}
