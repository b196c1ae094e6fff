package reliability

import (
	"errors"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// DefaultDimensionScore is used for a missing or unrecognized dimension label.
	DefaultDimensionScore = 0.4
	// FallbackScore is used when no assessment could be produced.
	FallbackScore = 0.5
)

var ErrUnparseableAssessment = errors.New("unparseable reliability assessment")

var (
	effectSizeScores = map[string]float64{
		"verysmall": 0.2,
		"small":     0.4,
		"medium":    0.7,
		"large":     1.0,
	}
	studyQualityScores = map[string]float64{
		"casestudy":      0.2,
		"crosssectional": 0.4,
		"longitudinal":   0.6,
		"rct":            0.8,
		"metaanalysis":   1.0,
	}
	replicationScores = map[string]float64{
		"inconsistent":     0.2,
		"mixed":            0.4,
		"mostlyconsistent": 0.7,
		"highlyconsistent": 1.0,
	}
	sampleSizeScores = map[string]float64{
		"small":  0.4,
		"medium": 0.7,
		"large":  1.0,
	}
)

const (
	effectSizeWeight   = 0.4
	studyQualityWeight = 0.3
	replicationWeight  = 0.15
	sampleSizeWeight   = 0.15
)

// Dimension is one categorical judgement of the evidence.
type Dimension struct {
	Assessment string `json:"assessment"`
	Reasoning  string `json:"reasoning,omitempty"`
	Examples   string `json:"examples,omitempty"`
}

// Assessment is the structured evidence review returned by the text generator.
type Assessment struct {
	EffectSize   Dimension `json:"effectSize"`
	StudyQuality Dimension `json:"studyQuality"`
	Replication  Dimension `json:"replication"`
	SampleSize   Dimension `json:"sampleSize"`
	Confidence   string    `json:"confidence,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// Score is a computed reliability score. A fallback score has the same Value
// as a computed one could, but remembers that no assessment backed it.
type Score struct {
	Value    float64
	fallback bool
}

func (s Score) Fallback() bool { return s.fallback }

// Evaluate scores an assessment; nil yields the fallback score.
func Evaluate(a *Assessment) Score {
	if a == nil {
		return Score{Value: FallbackScore, fallback: true}
	}
	sum := lookup(effectSizeScores, a.EffectSize.Assessment)*effectSizeWeight +
		lookup(studyQualityScores, a.StudyQuality.Assessment)*studyQualityWeight +
		lookup(replicationScores, a.Replication.Assessment)*replicationWeight +
		lookup(sampleSizeScores, a.SampleSize.Assessment)*sampleSizeWeight
	return Score{Value: clamp(round2(sum))}
}

// Compute returns the numeric reliability score for an assessment.
func Compute(a *Assessment) float64 {
	return Evaluate(a).Value
}

func lookup(table map[string]float64, label string) float64 {
	if v, ok := table[canonicalLabel(label)]; ok {
		return v
	}
	return DefaultDimensionScore
}

// canonicalLabel folds "metaAnalysis", "meta_analysis" and "Meta-Analysis" together.
func canonicalLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(label)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ParseAssessment reads an assessment from model output. Each dimension may be an
// object with an "assessment" label or a bare label; snake_case keys are accepted.
func ParseAssessment(text string) (*Assessment, error) {
	text = stripFence(text)
	if !gjson.Valid(text) {
		return nil, ErrUnparseableAssessment
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, ErrUnparseableAssessment
	}
	return &Assessment{
		EffectSize:   dimension(root, "effectSize", "effect_size"),
		StudyQuality: dimension(root, "studyQuality", "study_quality"),
		Replication:  dimension(root, "replication", "replication_consistency"),
		SampleSize:   dimension(root, "sampleSize", "sample_size"),
		Confidence:   first(root, "confidence").String(),
		Notes:        first(root, "notes").String(),
	}, nil
}

func dimension(root gjson.Result, keys ...string) Dimension {
	r := first(root, keys...)
	if !r.IsObject() {
		return Dimension{Assessment: r.String()}
	}
	return Dimension{
		Assessment: r.Get("assessment").String(),
		Reasoning:  r.Get("reasoning").String(),
		Examples:   r.Get("examples").String(),
	}
}

func first(root gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := root.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
