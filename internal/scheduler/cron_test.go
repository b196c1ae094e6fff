package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/config"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/service"
)

type fakeBackfiller struct {
	calls int
	err   error
}

func (f *fakeBackfiller) Backfill(context.Context) (*service.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.Report{Total: 2, Succeeded: 2}, nil
}

type fakeScorer struct {
	calls      int
	categories []model.Category
}

func (f *fakeScorer) ScoreAll(_ context.Context, categories []model.Category) (*service.ReliabilityRun, error) {
	f.calls++
	f.categories = categories
	return &service.ReliabilityRun{Report: &service.Report{Total: 1, Succeeded: 1}}, nil
}

func TestScheduler_Start(t *testing.T) {
	t.Run("Should schedule both jobs", func(t *testing.T) {
		s := NewScheduler(&fakeBackfiller{}, &fakeScorer{}, config.CronConfig{
			EmbeddingInterval:   "*/30 * * * *",
			ReliabilityInterval: "0 3 * * *",
		}, logger.Nop())
		require.NoError(t, s.Start())
		defer s.Stop()

		now := time.Now()
		next := s.GetNextEmbeddingTime()
		assert.True(t, next.After(now))
		assert.True(t, next.Before(now.Add(31*time.Minute)))
		assert.Equal(t, 3, s.GetNextReliabilityTime().Hour())
	})

	t.Run("Should reject an invalid schedule", func(t *testing.T) {
		s := NewScheduler(&fakeBackfiller{}, &fakeScorer{}, config.CronConfig{
			EmbeddingInterval:   "every half hour",
			ReliabilityInterval: "0 3 * * *",
		}, logger.Nop())
		err := s.Start()
		assert.ErrorContains(t, err, "every half hour")
	})
}

func TestScheduler_Jobs(t *testing.T) {
	ctx := context.Background()
	backfill := &fakeBackfiller{}
	scorer := &fakeScorer{}
	s := NewScheduler(backfill, scorer, config.Default().Cron, logger.Nop())

	s.runEmbeddings(ctx)
	s.runReliability(ctx)
	assert.Equal(t, 1, backfill.calls)
	assert.Equal(t, 1, scorer.calls)
	assert.Nil(t, scorer.categories)

	backfill.err = errors.New("store down")
	assert.NotPanics(t, func() { s.runEmbeddings(ctx) })
	assert.Equal(t, 2, backfill.calls)
}
