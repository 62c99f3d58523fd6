package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/firestore"
)

func TestCreateCheckDefaults(t *testing.T) {
	docs := newFakeDocs()
	store := NewStore(docs, zap.NewNop(), nil)

	id, err := store.CreateCheck(context.Background(), CheckRequest{
		ProductID:   42,
		ProductName: "Cappello",
		Locations:   []string{"Treviso", "Mogliano"},
		Priority:    "high",
		RequestedBy: "giulia",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	fields := docs.created["checks"][0]
	status, _ := fields["status"].AsString()
	assert.Equal(t, "pending", status)
	checkAll, ok := fields["check_all"].AsBoolean()
	assert.True(t, ok)
	assert.False(t, checkAll)
	locations, _ := fields["location"].AsArray()
	assert.Len(t, locations, 2)
}

func TestCreateCheckNeedsLocation(t *testing.T) {
	store := NewStore(newFakeDocs(), zap.NewNop(), nil)

	_, err := store.CreateCheck(context.Background(), CheckRequest{ProductID: 1})
	assert.Error(t, err)
}

func TestChecksForLocationParsesLegacyBooleans(t *testing.T) {
	docs := newFakeDocs()
	docs.results = []firestore.Document{{
		Name: "x/checks/c1",
		Fields: map[string]firestore.Value{
			"product_id":   firestore.String("42"),
			"product_name": firestore.String("Cappello"),
			"priority":     firestore.String("low"),
			"requested_by": firestore.String("marco"),
			"status":       firestore.String("pending"),
			"timestamp":    firestore.String(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)),
			"location":     firestore.Strings([]string{"Treviso"}),
			"check_all":    firestore.String("true"),
			"checked":      firestore.Boolean(false),
			"variant_id":   firestore.Integer(9),
		},
	}}
	store := NewStore(docs, zap.NewNop(), nil)

	checks, err := store.ChecksForLocation(context.Background(), "Treviso")
	require.NoError(t, err)
	require.Len(t, checks, 1)

	c := checks[0]
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, int64(42), c.ProductID)
	assert.True(t, c.CheckAll)
	assert.False(t, c.Checked)
	require.NotNil(t, c.VariantID)
	assert.Equal(t, int64(9), *c.VariantID)

	filter := docs.queries[0].Where.FieldFilter
	assert.Equal(t, firestore.OpArrayContains, filter.Op)
}

func TestUpdateCheckMask(t *testing.T) {
	docs := newFakeDocs()
	store := NewStore(docs, zap.NewNop(), nil)

	require.NoError(t, store.UpdateCheck(context.Background(), "c1", CheckStatusCompleted, "all good"))
	assert.Equal(t, []string{"checks/c1", "status", "closing_notes", "checked", "checked_at"}, docs.patched)
}
