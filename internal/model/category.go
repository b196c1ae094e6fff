package model

type Category string

const (
	CategoryMentalHealth     Category = "mental_health"
	CategoryNeuroscience     Category = "neuroscience"
	CategoryPsychology       Category = "psychology"
	CategoryBrainHealth      Category = "brain_health"
	CategoryNeurodiversity   Category = "neurodiversity"
	CategoryInterventions    Category = "interventions"
	CategoryLifestyleFactors Category = "lifestyle_factors"
	CategoryLabTesting       Category = "lab_testing"
	CategoryRiskFactors      Category = "risk_factors"
)

// Categories lists every category in canonical order.
var Categories = []Category{
	CategoryMentalHealth,
	CategoryNeuroscience,
	CategoryPsychology,
	CategoryBrainHealth,
	CategoryNeurodiversity,
	CategoryInterventions,
	CategoryLifestyleFactors,
	CategoryLabTesting,
	CategoryRiskFactors,
}

// ScoredCategories carry a reliability_score content block.
var ScoredCategories = []Category{
	CategoryInterventions,
	CategoryLifestyleFactors,
	CategoryRiskFactors,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) Scored() bool {
	for _, s := range ScoredCategories {
		if c == s {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPublished, StatusDraft, StatusArchived:
		return true
	}
	return false
}
