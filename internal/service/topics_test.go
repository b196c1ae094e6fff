package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/internal/logger"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Mental Health News</title>
    <item><title>Loneliness in Older Adults</title><link>https://example.org/1</link></item>
    <item><title>  </title><link>https://example.org/2</link></item>
    <item><title>loneliness in older adults</title><link>https://example.org/3</link></item>
    <item><title>Noise Pollution</title><link>https://example.org/4</link></item>
    <item><title>Shift Work</title><link>https://example.org/5</link></item>
  </channel>
</rss>`

func TestParseTopics(t *testing.T) {
	assert.Equal(t, []string{"Sleep", "Exercise"}, ParseTopics(" Sleep, ,Exercise ,"))
	assert.Empty(t, ParseTopics(""))
}

func TestRiskFactors(t *testing.T) {
	t.Run("Should return all predefined topics", func(t *testing.T) {
		topics, err := RiskFactors("", 0, true)
		require.NoError(t, err)
		assert.Len(t, topics, 25)
	})

	t.Run("Should prefer an explicit list", func(t *testing.T) {
		topics, err := RiskFactors("Loneliness, Noise", 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Loneliness", "Noise"}, topics)
	})

	t.Run("Should take the first n topics", func(t *testing.T) {
		topics, err := RiskFactors("", 3, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Childhood Trauma", "Genetic Predisposition", "Chronic Stress"}, topics)

		topics, err = RiskFactors("", 100, false)
		require.NoError(t, err)
		assert.Len(t, topics, 25)
	})

	t.Run("Should fail without topics", func(t *testing.T) {
		_, err := RiskFactors(" , ", 0, false)
		assert.ErrorIs(t, err, ErrNoTopics)
	})
}

func TestTopicService_FeedTopics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()
	svc := NewTopicService(logger.Nop())

	t.Run("Should use unique item titles", func(t *testing.T) {
		topics, err := svc.FeedTopics(context.Background(), srv.URL, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Loneliness in Older Adults", "Noise Pollution", "Shift Work"}, topics)
	})

	t.Run("Should stop at the limit", func(t *testing.T) {
		topics, err := svc.FeedTopics(context.Background(), srv.URL, 2)
		require.NoError(t, err)
		assert.Len(t, topics, 2)
	})
}
