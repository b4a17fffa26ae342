package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"listings_portal/internal/domain"
)

// SnapshotService copies the current CRM index into the listing archive.
type SnapshotService struct {
	src     domain.ListingSource
	archive domain.ListingArchive
	workers int
}

type SnapshotResult struct {
	RunID   string
	Stored  int
	Skipped int
	Failed  int
}

func NewSnapshotService(src domain.ListingSource, archive domain.ListingArchive, workers int) *SnapshotService {
	if workers <= 0 {
		workers = 8
	}
	return &SnapshotService{src: src, archive: archive, workers: workers}
}

func (s *SnapshotService) Run(ctx context.Context) (SnapshotResult, error) {
	var res SnapshotResult

	runID, err := s.archive.BeginRun(ctx)
	if err != nil {
		return res, fmt.Errorf("begin snapshot run: %w", err)
	}
	res.RunID = runID

	listings := s.src.ListAll(ctx)
	if len(listings) == 0 {
		log.Warn().Str("run", runID).Msg("crm returned no listings")
	}

	sem := semaphore.NewWeighted(int64(s.workers))
	var (
		wg             sync.WaitGroup
		stored, failed atomic.Int64
		acquireErr     error
	)

	for _, l := range listings {
		if l.ID == nil {
			// archive rows are keyed by CRM id
			res.Skipped++
			log.Warn().Str("run", runID).Msg("listing without id skipped")
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}

		wg.Add(1)
		go func(l domain.Listing) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.archive.UpsertListing(ctx, runID, l); err != nil {
				failed.Add(1)
				log.Warn().Err(err).Str("run", runID).Str("id", *l.ID).Msg("archive upsert failed")
				return
			}
			stored.Add(1)
		}(l)
	}
	wg.Wait()

	res.Stored = int(stored.Load())
	res.Failed = int(failed.Load())
	if err := s.archive.FinishRun(ctx, runID, res.Stored, res.Skipped+res.Failed); err != nil {
		return res, fmt.Errorf("finish snapshot run %s: %w", runID, err)
	}
	if acquireErr != nil {
		return res, fmt.Errorf("snapshot run %s interrupted: %w", runID, acquireErr)
	}
	return res, nil
}
