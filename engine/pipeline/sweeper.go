package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSweepSchedule = "@every 1m"
	DefaultStaleAfter    = 15 * time.Minute
	staleMessage         = "processing interrupted before completion"
)

// Sweeper fails documents left in processing, for example by a restart in
// the middle of an upload.
type Sweeper struct {
	repo       document.Repository
	schedule   string
	staleAfter time.Duration
	now        func() time.Time
	cron       *cron.Cron
}

func NewSweeper(repo document.Repository, schedule string, staleAfter time.Duration) (*Sweeper, error) {
	if repo == nil {
		return nil, errors.New("pipeline: repository is required")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("pipeline: invalid sweep schedule %q: %w", schedule, err)
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Sweeper{
		repo:       repo,
		schedule:   schedule,
		staleAfter: staleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start runs Sweep on the schedule until Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			logger.FromContext(ctx).Warn("Stale document sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("pipeline: schedule sweeper: %w", err)
	}
	s.cron.Start()
	logger.FromContext(ctx).Debug("Stale document sweeper started", "schedule", s.schedule, "stale_after", s.staleAfter)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep marks every document processing for longer than the stale window as
// failed and returns how many were changed. Documents that complete between
// the listing and the write are skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.staleAfter)
	var stale []*document.Document
	for page := 1; ; page++ {
		res, err := s.repo.List(ctx, document.ListFilter{
			Page:    page,
			PerPage: document.MaxPerPage,
			Status:  document.StatusProcessing,
		})
		if err != nil {
			return 0, fmt.Errorf("pipeline: list processing documents: %w", err)
		}
		for _, doc := range res.Documents {
			if doc.UpdatedAt.Before(cutoff) {
				stale = append(stale, doc)
			}
		}
		if page >= res.TotalPages {
			break
		}
	}
	swept := 0
	at := s.now()
	for _, doc := range stale {
		err := s.repo.MarkFailed(ctx, doc.ID, staleMessage, at)
		switch {
		case errors.Is(err, document.ErrAlreadyTerminal), errors.Is(err, document.ErrNotFound):
			logger.FromContext(ctx).Debug("Stale document finished before sweep", "document_id", doc.ID)
			continue
		case err != nil:
			return swept, fmt.Errorf("pipeline: fail stale document %s: %w", doc.ID, err)
		}
		swept++
	}
	if swept > 0 {
		recordSwept(ctx, swept)
		logger.FromContext(ctx).Warn("Failed stale documents", "count", swept, "stale_after", s.staleAfter)
	}
	return swept, nil
}
