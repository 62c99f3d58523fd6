package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/location"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

type fakeLogs struct {
	entries []audit.LogEntry
	args    []string
}

func (f *fakeLogs) LogsForProduct(_ context.Context, productID, location, startDate, endDate string) ([]audit.LogEntry, error) {
	f.args = []string{productID, location, startDate, endDate}
	return f.entries, nil
}

func logAt(ts string, itemID string, delta int, kind audit.RequestType) audit.LogEntry {
	t, _ := time.Parse(time.RFC3339, ts)
	return audit.LogEntry{
		RequestType: kind,
		Timestamp:   t,
		Data:        audit.LogData{InventoryItemID: itemID, Delta: delta},
	}
}

func TestProductHistory(t *testing.T) {
	dir, err := location.NewDirectory(config.LocationsConfig{
		Primary:   config.LocationConfig{Name: "Treviso", ID: treviso},
		Secondary: config.LocationConfig{Name: "Mogliano", ID: mogliano},
	})
	require.NoError(t, err)

	gw := &fakeGateway{
		product: &domain.Product{ID: "1", Variants: []domain.Variant{
			{Title: "M", InventoryItemID: "55"},
			{Title: "L", InventoryItemID: "56"},
		}},
		levels: []domain.InventoryLevel{{InventoryItemID: "55", LocationID: mogliano, Available: 4}},
	}
	logs := &fakeLogs{entries: []audit.LogEntry{
		logAt("2025-03-02T18:00:00Z", "55", 1, audit.RequestTransfer),
		logAt("2025-03-02T09:00:00Z", "55", -1, audit.RequestAdjustment),
		logAt("2025-03-01T10:00:00Z", "55", -1, audit.RequestAdjustment),
		{RequestType: audit.RequestUndo, Timestamp: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), Data: audit.LogData{Variant: "L", Delta: 1}},
	}}

	svc := NewHistoryService(gw, logs, dir, zap.NewNop())
	svc.loc = time.UTC
	svc.now = func() time.Time { return time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC) }

	history, err := svc.ProductHistory(context.Background(), "1", "mogliano", 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "Mogliano", "2025-02-24", "2025-03-03"}, logs.args)
	assert.Equal(t, "Mogliano", history.Location)
	assert.Equal(t, 7, history.DateRange.DaysBack)
	require.Len(t, history.Variants, 2)

	m := history.Variants[0]
	assert.Equal(t, "M", m.VariantTitle)
	assert.Equal(t, 4, m.CurrentQuantity)
	assert.Equal(t, -1, m.AppNetChange)
	require.Len(t, m.DailyModifications, 2)
	assert.Equal(t, "2025-03-02", m.DailyModifications[0].Date)
	assert.Equal(t, 0, m.DailyModifications[0].AppNetChange)
	require.Len(t, m.DailyModifications[0].AppDetails, 2)
	assert.Equal(t, "Trasferimento", m.DailyModifications[0].AppDetails[0].Reason)
	assert.Equal(t, "app", m.DailyModifications[0].AppDetails[0].Source)
	assert.Equal(t, "2025-03-01", m.DailyModifications[1].Date)

	l := history.Variants[1]
	assert.Equal(t, 0, l.CurrentQuantity)
	assert.Equal(t, 1, l.AppNetChange, "records without an item id match by variant title")
}

func TestProductHistoryValidation(t *testing.T) {
	dir, err := location.NewDirectory(config.LocationsConfig{
		Primary:   config.LocationConfig{Name: "Treviso", ID: treviso},
		Secondary: config.LocationConfig{Name: "Mogliano", ID: mogliano},
	})
	require.NoError(t, err)
	svc := NewHistoryService(&fakeGateway{}, &fakeLogs{}, dir, zap.NewNop())

	_, err = svc.ProductHistory(context.Background(), "1", "Treviso", 0)
	var ve *apperrors.ErrValidation
	assert.ErrorAs(t, err, &ve)

	_, err = svc.ProductHistory(context.Background(), "1", "Venezia", 7)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindLowStock(t *testing.T) {
	items := []domain.CatalogItem{{
		ID:    "1",
		Title: "Hat",
		Variants: []domain.Variant{
			{Title: "S", InventoryQuantity: 0},
			{Title: "M", InventoryQuantity: 2},
			{Title: "L", InventoryQuantity: 3},
		},
	}}

	low := FindLowStock(items, 2)
	require.Len(t, low, 2)
	assert.Equal(t, "S", low[0].VariantTitle)
	assert.Equal(t, "M", low[1].VariantTitle)
	assert.Equal(t, "Hat", low[1].ProductTitle)

	assert.Empty(t, FindLowStock(items, -1))
}
