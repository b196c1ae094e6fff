package service

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"mhp-content/internal/model"
	"mhp-content/internal/schema"
)

//go:embed examples/*.json
var exampleFS embed.FS

const GeneratorSystemPrompt = "You are a mental health content expert. Generate comprehensive, evidence-based articles " +
	"in JSON format. Always return a single JSON object whose text fields are strings, never arrays."

const SectionSystemPrompt = "You are an expert content writer specializing in mental health, psychology, and neuroscience. " +
	"Your task is to write clear, engaging content that is both scientifically accurate and accessible to a general audience."

const SummarySystemPrompt = "You are a mental health content expert. Generate clear, direct summaries that focus on what " +
	"the condition/topic IS, not what the article will cover. Avoid phrases like 'This article explores...' or 'We discuss...'."

// SectionTemperature is used for section rewrites.
const SectionTemperature = 0.7

// Section prompt keys, also the keys accepted under `prompts:` in the config file.
const (
	PromptSummary            = "summary"
	PromptOverview           = "overview"
	PromptPracticalTakeaways = "practical_takeaways"
)

// SectionPrompts are the built-in section templates. {topic} and {category} are substituted.
var SectionPrompts = map[string]string{
	PromptSummary: `Generate a clear, direct summary for an article about "{topic}" in the {category} category.

Requirements:
- Start with a clear, direct definition of the topic
- Focus on what the condition/topic IS, not what the article will cover
- Avoid phrases like "This article explores..." or "We discuss..."
- Keep it concise (2-3 sentences maximum)
- Use active voice and present tense
- Include key prevalence or impact information if relevant

Example good summary: "Obsessive-Compulsive Disorder (OCD) is a mental health condition characterized by persistent, unwanted thoughts (obsessions) and repetitive behaviors (compulsions). It affects approximately 1-2% of the population and can significantly impact daily functioning and quality of life."

Write only the summary, nothing else.`,

	PromptOverview: `Generate a clear, engaging overview for an article about "{topic}" in the {category} category.

Requirements:
- Start with a clear definition and context
- Explain why this topic matters
- Include key statistics or prevalence data
- Keep it concise and engaging
- Use accessible language
- Include relevant citations

Write only the overview, nothing else.`,

	PromptPracticalTakeaways: `Generate practical takeaways for an article about "{topic}" in the {category} category.

Requirements:
- Focus on actionable advice and strategies
- Include evidence-based recommendations
- Make it practical and implementable
- Use clear, direct language
- Include 3-5 key points
- Format as a cohesive paragraph

Write only the practical takeaways, nothing else.`,
}

// RenderSectionPrompt fills a section template.
func RenderSectionPrompt(template, topic string, category model.Category) string {
	return strings.NewReplacer("{topic}", topic, "{category}", string(category)).Replace(template)
}

var categoryFocus = map[model.Category]string{
	model.CategoryMentalHealth: `Focus on understanding, prevalence, causes, symptoms, and evidence-based approaches.
- Provide clear definitions and prevalence statistics
- Explain biological and environmental causes
- Describe symptoms and their impact on daily life
- Include evidence-based treatment approaches
- Address common misconceptions
- Offer practical coping strategies`,
	model.CategoryNeuroscience: `Focus on brain mechanisms, research findings, and scientific understanding.
- Explain brain mechanisms clearly
- Highlight key research studies
- Connect neuroscience to everyday life
- Address common misconceptions
- Provide practical implications`,
	model.CategoryPsychology: `Focus on psychological principles, theories, and applications.
- Explain psychological concepts clearly
- Include key theories and research
- Show practical applications
- Address misconceptions
- Provide evidence-based insights`,
	model.CategoryBrainHealth: `Focus on maintaining and optimizing brain function.
- Explain brain health concepts
- Include evidence-based strategies
- Provide practical tips
- Address common myths
- Focus on prevention and optimization`,
	model.CategoryNeurodiversity: `Focus on neurodivergent perspectives, strengths, and support.
- Emphasize neurodiversity as natural variation
- Highlight strengths and challenges
- Include lived experience perspectives
- Provide evidence-based support strategies
- Address misconceptions respectfully
- Focus on acceptance and accommodation`,
	model.CategoryInterventions: `Focus on evidence-based interventions and their effectiveness.
- Explain how the intervention works
- Provide a comprehensive evidence summary
- Include practical application guidelines
- Address risks and limitations
- Focus on evidence-based approaches`,
	model.CategoryLifestyleFactors: `Focus on lifestyle choices that impact mental health and brain function.
- Explain the lifestyle factor's impact
- Provide evidence-based recommendations
- Include practical implementation tips
- Address common misconceptions
- Focus on sustainable changes`,
	model.CategoryLabTesting: `Focus on laboratory tests and their applications in mental health.
- Explain how the test works
- Describe applications and uses
- Include evidence for effectiveness
- Address limitations and risks
- Provide practical guidance`,
	model.CategoryRiskFactors: `Focus on factors that increase risk for mental health conditions and how to address them.
- Explain the risk factor clearly and comprehensively
- Provide accurate prevalence statistics
- Describe biological and psychological mechanisms
- Focus on modifiable factors that can be addressed
- Highlight protective factors and resilience
- Include practical strategies for risk reduction`,
}

const scoreGuidance = `Calculate reliability_score (0-1) based on:
  - Effect sizes (0.1-0.3 = small, 0.3-0.5 = medium, >0.5 = large)
  - Number of studies/replications
  - Quality of evidence (RCTs, meta-analyses, etc.)
  - Consistency of findings across studies`

// exampleFor picks the worked example closest to the category's schema variant.
func exampleFor(s *schema.Schema) string {
	name := "neurodiversity"
	switch s.Variant {
	case "science", "lab_testing":
		name = "psychology"
	case "risk_factors", "practice":
		name = "risk_factors"
	}
	data, err := exampleFS.ReadFile("examples/" + name + ".json")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// BuildGenerationPrompt assembles the user prompt asking for one article about topic.
func BuildGenerationPrompt(topic string, category model.Category) (string, error) {
	s, err := schema.SchemaFor(category)
	if err != nil {
		return "", err
	}
	schemaJSON, err := json.MarshalIndent(s.JSONSchema(category), "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a comprehensive, evidence-based article about %q in the context of %s.\n\n", topic, category)

	b.WriteString(`# Article Requirements
- Write in a clear, accessible style for a general audience
- Use scientific accuracy with Vancouver citation style [1]
- Include practical, actionable insights
- Address common misconceptions
- Provide evidence-based recommendations
- Use everyday examples and analogies
- Avoid unnecessary jargon - explain technical terms

`)

	fmt.Fprintf(&b, "# Required Fields\nThe following fields are REQUIRED and must be included:\n")
	for _, f := range s.Required() {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	b.WriteString(`
## Format Requirements
- Use snake_case for all field names (e.g., practical_applications, evidence_summary)
- ALL text fields must be returned as strings, NOT arrays
- Write evidence_summary as a single cohesive paragraph covering key evidence, effectiveness and evidence base
- Write practical_applications as a single cohesive paragraph of practical takeaways and applications
- Use proper paragraph formatting with complete sentences
- Maintain consistent citation style throughout
- The summary is a direct 2-3 sentence definition of the topic, not a description of the article
`)

	fmt.Fprintf(&b, "\n## Category Instructions (%s)\n%s\n", category, categoryFocus[category])
	if s.Scored() {
		b.WriteString("- " + scoreGuidance + "\n")
	}

	b.WriteString("\nStructure the article in this order:\n")
	for i, f := range s.ContentFields() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.Name)
	}

	fmt.Fprintf(&b, "\n# Required Schema\nReturn one flat JSON object matching this schema:\n%s\n", schemaJSON)

	if example := exampleFor(s); example != "" {
		fmt.Fprintf(&b, "\n# Example Output\nAn example of a well-structured article:\n%s\n", example)
	}

	fmt.Fprintf(&b, `
# Important Notes
1. Follow the exact schema structure and set "category" to %q
2. Include ALL required fields listed above
3. Include numerical citations in square brackets [1] and detailed references at the end
4. ALL text fields must be strings, not arrays
5. Write in clear, accessible language while maintaining scientific accuracy
`, category)

	return b.String(), nil
}
