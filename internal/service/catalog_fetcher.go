package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

const (
	defaultFetchWindow = 3
	defaultPageSize    = 250
	defaultFetchPacing = 100 * time.Millisecond
)

// CatalogFetcher reads the full product listing. The next page is requested as
// soon as the previous page's cursor is known, with at most window requests in
// flight; a request is never issued without its cursor.
type CatalogFetcher struct {
	source   PageSource
	window   int
	pageSize int
	pacing   time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewCatalogFetcher(source PageSource, window, pageSize int, pacing time.Duration, logger *zap.Logger, m *metrics.Metrics) *CatalogFetcher {
	if window <= 0 {
		window = defaultFetchWindow
	}
	if pageSize <= 0 || pageSize > 250 {
		pageSize = defaultPageSize
	}
	if pacing <= 0 {
		pacing = defaultFetchPacing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogFetcher{
		source:   source,
		window:   window,
		pageSize: pageSize,
		pacing:   pacing,
		logger:   logger,
		metrics:  m,
	}
}

// cursorSignal carries the next cursor of one page exactly once
type cursorSignal struct {
	once sync.Once
	ch   chan string
}

func newCursorSignal() *cursorSignal {
	return &cursorSignal{ch: make(chan string, 1)}
}

func (s *cursorSignal) send(cursor string) {
	s.once.Do(func() { s.ch <- cursor })
}

// FetchAll returns every item with the given status in listing order. Any
// page failure fails the whole fetch; no partial catalog is returned.
func (f *CatalogFetcher) FetchAll(ctx context.Context, status domain.ProductStatus) ([]domain.CatalogItem, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.window)

	var (
		mu     sync.Mutex
		pages  = map[int][]domain.CatalogItem{}
		stopAt = -1
	)
	stopped := func(index int) bool {
		mu.Lock()
		defer mu.Unlock()
		return stopAt >= 0 && index > stopAt
	}

	var throttleErr error
	cursor := ""
	for index := 0; ; index++ {
		if index > 0 {
			if err := f.source.Throttle(gctx, f.pacing); err != nil {
				throttleErr = err
				break
			}
			if stopped(index) {
				break
			}
		}

		req := shopify.PageRequest{Status: status, Limit: f.pageSize, PageInfo: cursor}
		signal := newCursorSignal()
		pageIndex := index

		g.Go(func() error {
			// the dispatcher must never wait on a page that will not report a cursor
			defer signal.send("")

			page, err := f.source.ListProductsPage(gctx, req, signal.send)
			if err != nil {
				if stopped(pageIndex) {
					return nil
				}
				f.logger.Error("Failed to fetch product page", zap.Int("page", pageIndex+1), zap.Error(err))
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			pages[pageIndex] = page.Items
			if len(page.Items) == 0 && (stopAt < 0 || pageIndex < stopAt) {
				stopAt = pageIndex
			}
			f.logger.Debug("Fetched product page", zap.Int("page", pageIndex+1), zap.Int("items", len(page.Items)))
			return nil
		})

		var next string
		select {
		case next = <-signal.ch:
		case <-gctx.Done():
		}
		if gctx.Err() != nil || next == "" {
			break
		}
		cursor = next
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if throttleErr != nil {
		return nil, throttleErr
	}

	var items []domain.CatalogItem
	for index := 0; ; index++ {
		page, ok := pages[index]
		if !ok || len(page) == 0 {
			break
		}
		items = append(items, page...)
	}

	f.metrics.SetProductsFetched(len(items))
	f.logger.Info("Fetched catalog",
		zap.String("status", string(status)),
		zap.Int("pages", len(pages)),
		zap.Int("items", len(items)),
		zap.Duration("duration", time.Since(start)),
	)
	return items, nil
}
