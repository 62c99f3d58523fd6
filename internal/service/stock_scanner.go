package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

// StockScanner runs the fetch, filter and demote pipeline
type StockScanner struct {
	fetcher  *CatalogFetcher
	updater  *DraftUpdater
	excluded ExclusionSet
	out      io.Writer
	logger   *zap.Logger
}

// NewStockScanner creates a scanner. Progress narration goes to out; nil discards it.
func NewStockScanner(fetcher *CatalogFetcher, updater *DraftUpdater, excluded ExclusionSet, out io.Writer, logger *zap.Logger) *StockScanner {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockScanner{fetcher: fetcher, updater: updater, excluded: excluded, out: out, logger: logger}
}

// Run scans active products and, unless dryRun, sets those without stock to
// draft. A failed catalog fetch is an error; item failures are in the result.
// When ctx ends during the update phase Run returns the partial result together
// with a TimeoutError.
func (s *StockScanner) Run(ctx context.Context, dryRun bool) (*domain.StockUpdateResult, error) {
	if dryRun {
		fmt.Fprintln(s.out, "DRY RUN MODE - no changes will be made")
	} else {
		fmt.Fprintln(s.out, "LIVE MODE - products will be set to draft status")
	}

	fmt.Fprintln(s.out, "\nFetching all products...")
	items, err := s.fetcher.FetchAll(ctx, domain.ProductStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	fmt.Fprintf(s.out, "Fetched %d total products\n", len(items))

	fmt.Fprintln(s.out, "\nAnalyzing inventory...")
	candidates := FindProductsWithNoStock(items, s.excluded)
	fmt.Fprintf(s.out, "Found %d active products with no stock\n", len(candidates))

	result := &domain.StockUpdateResult{DryRun: dryRun, Candidates: candidates}
	if !dryRun && len(candidates) > 0 {
		fmt.Fprintln(s.out, "\nUpdating products to draft status...")
		position := 0
		result.Outcomes = s.updater.Update(ctx, candidates, func(o domain.UpdateOutcome) {
			position++
			fmt.Fprintf(s.out, "[%d/%d] %q (ID: %s): %s\n", position, len(candidates), o.Title, o.ProductID, describeOutcome(o))
		})
	}
	result.Summary = Summarize(candidates, result.Outcomes)

	s.logger.Info("Stock scan finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("found", result.Summary.TotalFound),
		zap.Int("excluded", result.Summary.ExcludedCount),
		zap.Int("updated", result.Summary.SuccessfulUpdates),
		zap.Int("failed", result.Summary.FailedUpdates),
	)
	if err := ctx.Err(); err != nil && !dryRun && len(candidates) > 0 {
		return result, &apperrors.TimeoutError{Service: "stock-scanner", Op: "update_products", Err: err}
	}
	return result, nil
}

func describeOutcome(o domain.UpdateOutcome) string {
	switch {
	case o.Success && o.Error != nil:
		return "skipped (" + *o.Error + ")"
	case o.Success:
		return "set to draft"
	case o.Error != nil:
		return "failed: " + *o.Error
	default:
		return "failed"
	}
}

// WriteReport prints the candidate list and the summary table
func WriteReport(w io.Writer, result *domain.StockUpdateResult) error {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, "\nFINAL RESULTS")
	fmt.Fprintln(w, rule)

	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, "No active products found with zero stock")
	} else if result.DryRun {
		fmt.Fprintln(w, "Products that would be affected:")
		for i, c := range result.Candidates {
			line := fmt.Sprintf("%d. %q (ID: %s)", i+1, c.Title, c.ID)
			if c.IsExcluded {
				line += " [EXCLUDED]"
			}
			fmt.Fprintln(w, line)
		}
	} else if result.Summary.FailedUpdates > 0 {
		fmt.Fprintln(w, "Failed products:")
		for _, o := range result.Outcomes {
			if !o.Success && o.Error != nil {
				fmt.Fprintf(w, "- %q (ID: %s): %s\n", o.Title, o.ProductID, *o.Error)
			}
		}
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOUND\tEXCLUDED\tELIGIBLE\tUPDATED\tFAILED")
	fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n",
		result.Summary.TotalFound,
		result.Summary.ExcludedCount,
		result.Summary.EligibleCount,
		result.Summary.SuccessfulUpdates,
		result.Summary.FailedUpdates,
	)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, rule)
	return err
}
