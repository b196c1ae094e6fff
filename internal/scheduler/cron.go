package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"mhp-content/config"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/service"
)

type Backfiller interface {
	Backfill(ctx context.Context) (*service.Report, error)
}

type Scorer interface {
	ScoreAll(ctx context.Context, categories []model.Category) (*service.ReliabilityRun, error)
}

type Scheduler struct {
	cron               *cron.Cron
	embeddings         Backfiller
	reliability        Scorer
	config             config.CronConfig
	log                *logger.Logger
	embeddingEntryID   cron.EntryID
	reliabilityEntryID cron.EntryID
}

func NewScheduler(embeddings Backfiller, reliability Scorer, cfg config.CronConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		embeddings:  embeddings,
		reliability: reliability,
		config:      cfg,
		log:         log.With("component", "cron"),
	}
}

// Start registers both jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	var err error
	// embedding backfill
	s.embeddingEntryID, err = s.cron.AddFunc(s.config.EmbeddingInterval, func() {
		s.runEmbeddings(context.Background())
	})
	if err != nil {
		return fmt.Errorf("embedding schedule %q: %w", s.config.EmbeddingInterval, err)
	}

	// reliability scoring
	s.reliabilityEntryID, err = s.cron.AddFunc(s.config.ReliabilityInterval, func() {
		s.runReliability(context.Background())
	})
	if err != nil {
		return fmt.Errorf("reliability schedule %q: %w", s.config.ReliabilityInterval, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		"embedding", s.config.EmbeddingInterval,
		"reliability", s.config.ReliabilityInterval,
	)
	return nil
}

func (s *Scheduler) runEmbeddings(ctx context.Context) {
	s.log.Info("backfilling embeddings")
	report, err := s.embeddings.Backfill(ctx)
	if err != nil {
		s.log.Error("embedding backfill failed", "error", err)
		return
	}
	s.log.Info("embedding backfill done",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed(),
	)
}

func (s *Scheduler) runReliability(ctx context.Context) {
	s.log.Info("scoring reliability")
	run, err := s.reliability.ScoreAll(ctx, nil)
	if err != nil {
		s.log.Error("reliability scoring failed", "error", err)
		return
	}
	s.log.Info("reliability scoring done",
		"total", run.Report.Total,
		"updated", run.Report.Succeeded,
		"kept", run.Report.Skipped,
		"failed", run.Report.Failed(),
	)
}

// GetNextEmbeddingTime returns when the embedding backfill runs next.
func (s *Scheduler) GetNextEmbeddingTime() time.Time {
	entry := s.cron.Entry(s.embeddingEntryID)
	return entry.Next
}

// GetNextReliabilityTime returns when reliability scoring runs next.
func (s *Scheduler) GetNextReliabilityTime() time.Time {
	entry := s.cron.Entry(s.reliabilityEntryID)
	return entry.Next
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
