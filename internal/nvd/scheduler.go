package nvd

import (
	"context"
	"fmt"
	"time"

	"github.com/ettoremessina/CveGuardian/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxWindowDays is the feed's maximum last-modified query span. Windows
// wider than this are clamped at the start; re-fetching already-seen records
// is harmless because upserts are idempotent.
const maxWindowDays = 120

// Store is the slice of vulnerability storage the scheduler needs.
type Store interface {
	Watermark(ctx context.Context) (time.Time, error)
	UpsertCVE(ctx context.Context, cve model.CVE) error
	ReplaceAffected(ctx context.Context, cveID string, items []model.AffectedItem) error
}

// Feed abstracts the paged vulnerability feed.
type Feed interface {
	FetchPage(ctx context.Context, startIndex int, window *Window) (*Page, error)
}

// Scheduler drives periodic incremental pulls from the feed into the store.
type Scheduler struct {
	feed     Feed
	store    Store
	interval time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler wires a scheduler. pageDelay is the mandatory courtesy
// interval between consecutive page requests; the feed rate-limits globally,
// not per caller.
func NewScheduler(feed Feed, store Store, interval, pageDelay time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		feed:     feed,
		store:    store,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(pageDelay), 1),
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one cycle immediately, then one per interval until the
// context is cancelled. A failed cycle is logged and never prevents the
// next scheduled one.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.RunCycle(ctx); err != nil {
		s.logger.Sugar().Errorf("NVD sync failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.logger.Sugar().Errorf("NVD sync failed: %v", err)
			}
		}
	}
}

// RunCycle performs one full or incremental sync. Individual record parse
// failures are logged and skipped; a fetch or storage failure aborts the
// cycle.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	window, err := s.computeWindow(ctx)
	if err != nil {
		return fmt.Errorf("compute sync window: %w", err)
	}

	if window == nil {
		s.logger.Sugar().Infof("No existing CVEs found, performing full initial sync")
	} else {
		s.logger.Sugar().Infof("Incremental sync from %s", window.Start.Format(time.RFC3339))
	}

	startIndex := 0
	totalResults := 0

	for {
		// Blocking courtesy delay between pages, feed-mandated.
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		page, err := s.feed.FetchPage(ctx, startIndex, window)
		if err != nil {
			return err
		}

		totalResults = page.TotalResults
		if len(page.Vulnerabilities) == 0 {
			break
		}

		if err := s.storePage(ctx, page); err != nil {
			return err
		}

		startIndex += len(page.Vulnerabilities)
		s.logger.Sugar().Infof("Synced %d / %d", startIndex, totalResults)

		if startIndex >= totalResults {
			break
		}
	}

	s.logger.Sugar().Infof("NVD sync completed")
	return nil
}

// computeWindow derives the incremental fetch window from the stored
// watermark. No watermark means full sync (nil window). A watermark older
// than the feed's maximum span clamps the window start rather than leaving
// a gap.
func (s *Scheduler) computeWindow(ctx context.Context) (*Window, error) {
	watermark, err := s.store.Watermark(ctx)
	if err != nil {
		return nil, err
	}
	if watermark.IsZero() {
		return nil, nil
	}

	now := s.now().UTC()
	oldest := now.AddDate(0, 0, -maxWindowDays)
	if watermark.Before(oldest) {
		s.logger.Sugar().Warnf("Watermark older than %d days, clamping window start", maxWindowDays)
		watermark = oldest
	}

	return &Window{Start: watermark, End: now}, nil
}

func (s *Scheduler) storePage(ctx context.Context, page *Page) error {
	for _, item := range page.Vulnerabilities {
		cve, affected, err := Normalize(item)
		if err != nil {
			// One malformed record never aborts the batch.
			s.logger.Sugar().Warnf("Skipping unparseable feed item: %v", err)
			continue
		}

		if err := s.store.UpsertCVE(ctx, *cve); err != nil {
			return err
		}
		if err := s.store.ReplaceAffected(ctx, cve.ID, affected); err != nil {
			return err
		}
	}
	return nil
}
