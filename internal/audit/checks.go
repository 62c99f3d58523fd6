package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/firestore"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

const checksCollection = "checks"

// CheckStatusCompleted marks a check request as done
const CheckStatusCompleted = "completed"

// CheckRequest asks staff at one or more locations to verify a product's stock
type CheckRequest struct {
	ID           string     `json:"id,omitempty"`
	ProductID    int64      `json:"product_id" binding:"required"`
	ProductName  string     `json:"product_name" binding:"required"`
	VariantID    *int64     `json:"variant_id,omitempty"`
	VariantName  *string    `json:"variant_name,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Locations    []string   `json:"location" binding:"required,min=1"`
	CheckAll     bool       `json:"check_all"`
	Checked      bool       `json:"checked"`
	CheckedAt    *time.Time `json:"checked_at,omitempty"`
	CheckedBy    *string    `json:"checked_by,omitempty"`
	Notes        string     `json:"notes"`
	ClosingNotes *string    `json:"closing_notes,omitempty"`
	Priority     string     `json:"priority" binding:"required"`
	RequestedBy  string     `json:"requested_by" binding:"required"`
	Status       string     `json:"status"`
	Timestamp    time.Time  `json:"timestamp"`
}

func (c CheckRequest) toFields() map[string]firestore.Value {
	fields := map[string]firestore.Value{
		"product_id":   firestore.Integer(c.ProductID),
		"product_name": firestore.String(c.ProductName),
		"location":     firestore.Strings(c.Locations),
		"check_all":    firestore.Boolean(c.CheckAll),
		"checked":      firestore.Boolean(c.Checked),
		"notes":        firestore.String(c.Notes),
		"priority":     firestore.String(c.Priority),
		"requested_by": firestore.String(c.RequestedBy),
		"status":       firestore.String(c.Status),
		"timestamp":    firestore.String(c.Timestamp.Format(time.RFC3339)),
	}
	if c.VariantID != nil {
		fields["variant_id"] = firestore.Integer(*c.VariantID)
	}
	if c.VariantName != nil {
		fields["variant_name"] = firestore.String(*c.VariantName)
	}
	if c.ImageURL != nil {
		fields["image_url"] = firestore.String(*c.ImageURL)
	}
	if c.CheckedBy != nil {
		fields["checked_by"] = firestore.String(*c.CheckedBy)
	}
	if c.CheckedAt != nil {
		fields["checked_at"] = firestore.String(c.CheckedAt.Format(time.RFC3339))
	}
	return fields
}

func checkFromDocument(doc firestore.Document) (CheckRequest, error) {
	f := doc.Fields
	fail := func(field string) (CheckRequest, error) {
		return CheckRequest{}, &apperrors.ParseError{What: "check " + doc.ID(), Err: fmt.Errorf("missing %s", field)}
	}

	c := CheckRequest{ID: doc.ID()}
	var ok bool
	if c.ProductID, ok = integerField(f["product_id"]); !ok {
		return fail("product_id")
	}
	if c.ProductName, ok = f["product_name"].AsString(); !ok {
		return fail("product_name")
	}
	if c.Priority, ok = f["priority"].AsString(); !ok {
		return fail("priority")
	}
	if c.RequestedBy, ok = f["requested_by"].AsString(); !ok {
		return fail("requested_by")
	}
	if c.Status, ok = f["status"].AsString(); !ok {
		return fail("status")
	}
	ts, err := timestampField(f["timestamp"])
	if err != nil {
		return fail("timestamp")
	}
	c.Timestamp = ts

	if values, ok := f["location"].AsArray(); ok {
		for _, v := range values {
			if s, ok := v.AsString(); ok {
				c.Locations = append(c.Locations, s)
			}
		}
	}
	if len(c.Locations) == 0 {
		return fail("location")
	}

	c.Notes, _ = f["notes"].AsString()
	c.CheckAll = booleanField(f["check_all"])
	c.Checked = booleanField(f["checked"])
	if n, ok := integerField(f["variant_id"]); ok {
		c.VariantID = &n
	}
	c.VariantName = optionalString(f["variant_name"])
	c.ImageURL = optionalString(f["image_url"])
	c.CheckedBy = optionalString(f["checked_by"])
	c.ClosingNotes = optionalString(f["closing_notes"])
	if t, err := timestampField(f["checked_at"]); err == nil {
		c.CheckedAt = &t
	}
	return c, nil
}

// CreateCheck stores a new check request
func (s *Store) CreateCheck(ctx context.Context, check CheckRequest) (string, error) {
	if len(check.Locations) == 0 {
		return "", &apperrors.ErrValidation{Message: "check request needs at least one location"}
	}
	if check.Timestamp.IsZero() {
		check.Timestamp = s.now().In(s.loc)
	}
	if check.Status == "" {
		check.Status = "pending"
	}

	id, err := s.docs.CreateDocument(ctx, checksCollection, check.toFields())
	if err != nil {
		return "", fmt.Errorf("failed to create check request: %w", err)
	}
	s.logger.Info("Check request created", zap.String("check_id", id), zap.Int64("product_id", check.ProductID))
	return id, nil
}

// ChecksForLocation returns the check requests addressed to a location, newest first
func (s *Store) ChecksForLocation(ctx context.Context, location string) ([]CheckRequest, error) {
	q := firestore.Query(checksCollection)
	filter := firestore.Where("location", firestore.OpArrayContains, firestore.String(location))
	q.Where = &filter
	q.OrderBy = []firestore.Order{firestore.By("timestamp", firestore.Descending)}

	docs, err := s.docs.RunQuery(ctx, q)
	if err != nil {
		return nil, withIndexHint(err)
	}

	checks := make([]CheckRequest, 0, len(docs))
	for _, doc := range docs {
		c, err := checkFromDocument(doc)
		if err != nil {
			s.logger.Warn("Skipping malformed check request", zap.String("document", doc.Name), zap.Error(err))
			continue
		}
		checks = append(checks, c)
	}
	return checks, nil
}

// UpdateCheck sets a check request's status and closing notes
func (s *Store) UpdateCheck(ctx context.Context, id, status, closingNotes string) error {
	if id == "" || status == "" {
		return &apperrors.ErrValidation{Message: "check id and status are required"}
	}
	fields := map[string]firestore.Value{
		"status":        firestore.String(status),
		"closing_notes": firestore.String(closingNotes),
		"checked":       firestore.Boolean(status == CheckStatusCompleted),
		"checked_at":    firestore.String(s.now().UTC().Format(time.RFC3339)),
	}
	mask := []string{"status", "closing_notes", "checked", "checked_at"}

	if _, err := s.docs.PatchDocument(ctx, checksCollection, id, fields, mask); err != nil {
		return fmt.Errorf("failed to update check request %s: %w", id, err)
	}
	return nil
}

func integerField(v firestore.Value) (int64, bool) {
	if n, ok := v.AsInteger(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// booleanField also accepts "true"/"false" strings written by older clients
func booleanField(v firestore.Value) bool {
	if b, ok := v.AsBoolean(); ok {
		return b
	}
	if s, ok := v.AsString(); ok {
		b, _ := strconv.ParseBool(s)
		return b
	}
	return false
}

func optionalString(v firestore.Value) *string {
	if s, ok := v.AsString(); ok {
		return &s
	}
	return nil
}
