package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mmcdole/gofeed"

	"mhp-content/internal/logger"
)

var ErrNoTopics = errors.New("no topics specified")

// RiskFactorTopics are the predefined risk-factor article topics.
var RiskFactorTopics = []string{
	"Childhood Trauma",
	"Genetic Predisposition",
	"Chronic Stress",
	"Social Isolation",
	"Substance Abuse",
	"Sleep Deprivation",
	"Poor Nutrition",
	"Physical Inactivity",
	"Environmental Toxins",
	"Socioeconomic Disadvantage",
	"Discrimination and Racism",
	"Family History of Mental Illness",
	"Early Life Adversity",
	"Urban Living",
	"Digital Overuse",
	"Workplace Stress",
	"Financial Insecurity",
	"Relationship Problems",
	"Academic Pressure",
	"Social Media Use",
	"Climate Change Anxiety",
	"Political Polarization",
	"Healthcare Access Barriers",
	"Housing Instability",
	"Food Insecurity",
}

// TopicService resolves the topic list for batch generation.
type TopicService struct {
	parser *gofeed.Parser
	log    *logger.Logger
}

func NewTopicService(log *logger.Logger) *TopicService {
	return &TopicService{
		parser: gofeed.NewParser(),
		log:    log.With("service", "TopicService"),
	}
}

// ParseTopics splits a comma-separated list, dropping blanks.
func ParseTopics(list string) []string {
	var topics []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// RiskFactors picks risk-factor topics: all of them, an explicit list, or the first n.
func RiskFactors(list string, n int, all bool) ([]string, error) {
	var topics []string
	switch {
	case all:
		topics = append(topics, RiskFactorTopics...)
	case strings.TrimSpace(list) != "":
		topics = ParseTopics(list)
	default:
		n = max(0, min(n, len(RiskFactorTopics)))
		topics = append(topics, RiskFactorTopics[:n]...)
	}
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	return topics, nil
}

// FeedTopics uses the titles of an RSS/Atom feed's newest items as topics; limit <= 0 means all.
func (s *TopicService) FeedTopics(ctx context.Context, url string, limit int) ([]string, error) {
	parsed, err := s.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var topics []string
	for _, item := range parsed.Items {
		title := strings.TrimSpace(item.Title)
		key := strings.ToLower(title)
		if title == "" || seen[key] {
			continue
		}
		seen[key] = true
		topics = append(topics, title)
		if limit > 0 && len(topics) == limit {
			break
		}
	}
	s.log.Info("topics from feed", "url", url, "count", len(topics))
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	return topics, nil
}
