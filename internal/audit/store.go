package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/firestore"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

const (
	logsCollection   = "logs"
	dateLayout       = "2006-01-02"
	dayQueryLimit    = 100
	rangeQueryLimit  = 500
	breakerName      = "audit-log"
	breakerThreshold = 5
)

// DocumentStore is the part of the Firestore client the audit store needs
type DocumentStore interface {
	CreateDocument(ctx context.Context, collection string, fields map[string]firestore.Value) (string, error)
	RunQuery(ctx context.Context, q firestore.StructuredQuery) ([]firestore.Document, error)
	PatchDocument(ctx context.Context, collection, id string, fields map[string]firestore.Value, mask []string) (*firestore.Document, error)
}

// Store reads and writes audit records and check requests
type Store struct {
	docs    DocumentStore
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
}

// NewStore creates an audit store. Writes go through a circuit breaker.
func NewStore(docs DocumentStore, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.SetBreakerState(name, int(to))
		},
	}
	return &Store{
		docs:    docs,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		metrics: m,
		loc:     time.Local,
		now:     time.Now,
	}
}

// Record writes one audit record and returns its document id
func (s *Store) Record(ctx context.Context, entry LogEntry) (string, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().In(s.loc)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.docs.CreateDocument(ctx, logsCollection, entry.toFields())
	})
	if err != nil {
		s.metrics.RecordAuditFailure()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("audit log unavailable: circuit breaker open for %s: %w", breakerName, err)
		}
		return "", fmt.Errorf("failed to record audit log: %w", err)
	}

	id := result.(string)
	s.logger.Info("Audit log recorded",
		zap.String("log_id", id),
		zap.String("request_type", string(entry.RequestType)),
		zap.String("product_id", entry.Data.ProductID),
		zap.String("location", entry.Data.Location),
		zap.Int("delta", entry.Data.Delta),
	)
	return id, nil
}

// LogsForDay returns the records of one local calendar day at a location, newest first
func (s *Store) LogsForDay(ctx context.Context, location, nameFilter string, day time.Time) ([]LogEntry, error) {
	date := day.In(s.loc).Format(dateLayout)
	q := s.logQuery(location, date, date, dayQueryLimit)
	return s.runLogQuery(ctx, q, nameFilter)
}

// LogsToday returns today's records at a location
func (s *Store) LogsToday(ctx context.Context, location, nameFilter string) ([]LogEntry, error) {
	return s.LogsForDay(ctx, location, nameFilter, s.now())
}

// LogsInRange returns the records between two YYYY-MM-DD dates (both inclusive), newest first
func (s *Store) LogsInRange(ctx context.Context, location, startDate, endDate, nameFilter string) ([]LogEntry, error) {
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}
	q := s.logQuery(location, startDate, endDate, rangeQueryLimit)
	return s.runLogQuery(ctx, q, nameFilter)
}

// LogsForProduct returns the records of one product at a location in a date range
func (s *Store) LogsForProduct(ctx context.Context, productID, location, startDate, endDate string) ([]LogEntry, error) {
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}
	q := s.logQuery(location, startDate, endDate, rangeQueryLimit)
	q.Where.CompositeFilter.Filters = append(q.Where.CompositeFilter.Filters,
		firestore.Where(fieldData+"."+fieldProductID, firestore.OpEqual, firestore.String(productID)))
	return s.runLogQuery(ctx, q, "")
}

// logQuery selects a location's records whose RFC 3339 timestamp falls on a day in [start, end].
func (s *Store) logQuery(location, startDate, endDate string, limit int) firestore.StructuredQuery {
	q := firestore.Query(logsCollection)
	q.Where = &firestore.Filter{CompositeFilter: &firestore.CompositeFilter{
		Op: "AND",
		Filters: []firestore.Filter{
			firestore.Where(fieldTimestamp, firestore.OpGreaterThanOrEqual, firestore.String(startDate)),
			firestore.Where(fieldTimestamp, firestore.OpLessThan, firestore.String(endDate+"\uffff")),
			firestore.Where(fieldData+"."+fieldLocation, firestore.OpEqual, firestore.String(location)),
		},
	}}
	q.OrderBy = []firestore.Order{firestore.By(fieldTimestamp, firestore.Descending)}
	q.Limit = limit
	return q
}

func (s *Store) runLogQuery(ctx context.Context, q firestore.StructuredQuery, nameFilter string) ([]LogEntry, error) {
	docs, err := s.docs.RunQuery(ctx, q)
	if err != nil {
		return nil, withIndexHint(err)
	}

	needle := strings.ToLower(strings.TrimSpace(nameFilter))
	entries := make([]LogEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := entryFromDocument(doc)
		if err != nil {
			s.logger.Warn("Skipping malformed audit log", zap.String("document", doc.Name), zap.Error(err))
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(entry.Data.Name), needle) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func validateRange(startDate, endDate string) error {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return &apperrors.ErrValidation{Message: fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", startDate)}
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return &apperrors.ErrValidation{Message: fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", endDate)}
	}
	if end.Before(start) {
		return &apperrors.ErrValidation{Message: "end date is before start date"}
	}
	return nil
}

// withIndexHint explains the composite-index error Firestore returns for new query shapes
func withIndexHint(err error) error {
	var rr *apperrors.RemoteRejection
	if errors.As(err, &rr) && rr.StatusCode == http.StatusBadRequest && strings.Contains(rr.Body, "index") {
		return fmt.Errorf("firestore needs a composite index for this query; create it from the link in the error body: %w", err)
	}
	return err
}
