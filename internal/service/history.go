package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/location"
)

const (
	historyDateLayout = "2006-01-02"
	maxHistoryDays    = 365
	historySource     = "app"
)

// HistoryService rebuilds a product's app-side change history at one location
type HistoryService struct {
	catalog CatalogReader
	logs    AuditReader
	dir     *location.Directory
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

func NewHistoryService(catalog CatalogReader, logs AuditReader, dir *location.Directory, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{catalog: catalog, logs: logs, dir: dir, logger: logger, loc: time.Local, now: time.Now}
}

// ProductHistory returns, per variant, the audit records of the last daysBack
// days grouped by calendar day (newest first) next to the current quantity.
func (s *HistoryService) ProductHistory(ctx context.Context, productID, locationName string, daysBack int) (*domain.ProductModificationHistory, error) {
	if productID == "" {
		return nil, invalid("product_id", "is required")
	}
	if daysBack < 1 || daysBack > maxHistoryDays {
		return nil, invalid("days_back", "must be between 1 and 365")
	}
	info, err := s.dir.ByName(locationName)
	if err != nil {
		return nil, err
	}

	end := s.now().In(s.loc)
	start := end.AddDate(0, 0, -daysBack)
	dateRange := domain.DateRange{
		Start:    start.Format(historyDateLayout),
		End:      end.Format(historyDateLayout),
		DaysBack: daysBack,
	}

	entries, err := s.logs.LogsForProduct(ctx, productID, info.Name, dateRange.Start, dateRange.End)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]string, 0, len(product.Variants))
	for _, v := range product.Variants {
		itemIDs = append(itemIDs, v.InventoryItemID)
	}
	quantities := map[string]int{}
	if len(itemIDs) > 0 {
		levels, err := s.catalog.GetInventoryLevels(ctx, itemIDs, []string{info.ID})
		if err != nil {
			return nil, err
		}
		for _, level := range levels {
			quantities[level.InventoryItemID] = level.Available
		}
	}

	history := &domain.ProductModificationHistory{
		ProductID: productID,
		Location:  info.Name,
		DateRange: dateRange,
		Variants:  make([]domain.VariantModificationHistory, 0, len(product.Variants)),
	}
	for _, v := range product.Variants {
		var mine []audit.LogEntry
		for _, e := range entries {
			if belongsTo(e, v) {
				mine = append(mine, e)
			}
		}
		vh := domain.VariantModificationHistory{
			VariantTitle:       v.Title,
			InventoryItemID:    v.InventoryItemID,
			CurrentQuantity:    quantities[v.InventoryItemID],
			DailyModifications: s.groupByDay(mine),
		}
		for _, e := range mine {
			vh.AppNetChange += e.Data.Delta
		}
		history.Variants = append(history.Variants, vh)
	}

	s.logger.Debug("Built modification history",
		zap.String("product_id", productID),
		zap.String("location", info.Name),
		zap.Int("records", len(entries)),
	)
	return history, nil
}

// belongsTo matches by inventory item; older records only carry the variant title
func belongsTo(e audit.LogEntry, v domain.Variant) bool {
	if e.Data.InventoryItemID != "" {
		return e.Data.InventoryItemID == v.InventoryItemID
	}
	return e.Data.Variant == v.Title
}

func (s *HistoryService) groupByDay(entries []audit.LogEntry) []domain.DailyModificationGroup {
	byDay := map[string]*domain.DailyModificationGroup{}
	for _, e := range entries {
		day := e.Timestamp.In(s.loc).Format(historyDateLayout)
		group, ok := byDay[day]
		if !ok {
			group = &domain.DailyModificationGroup{Date: day, AppDetails: []domain.ModificationDetail{}}
			byDay[day] = group
		}
		group.AppNetChange += e.Data.Delta
		group.AppDetails = append(group.AppDetails, domain.ModificationDetail{
			Timestamp: e.Timestamp,
			Source:    historySource,
			Change:    e.Data.Delta,
			Reason:    string(e.RequestType),
		})
	}

	groups := make([]domain.DailyModificationGroup, 0, len(byDay))
	for _, g := range byDay {
		sort.SliceStable(g.AppDetails, func(i, j int) bool {
			return g.AppDetails[i].Timestamp.After(g.AppDetails[j].Timestamp)
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}
