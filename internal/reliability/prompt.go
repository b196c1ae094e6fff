package reliability

import "fmt"

const SystemPrompt = "You are a research analyst expert at evaluating evidence quality. Provide only JSON responses."

const (
	Temperature = 0.1
	MaxTokens   = 1000
)

// Prompt builds the structured-assessment request for one article's evidence summary.
func Prompt(title, evidenceSummary string) string {
	return fmt.Sprintf(`You are an expert research analyst evaluating the reliability of evidence for mental health interventions, lifestyle factors and risk factors.

Analyze the following evidence summary for %q and provide a structured assessment:

EVIDENCE SUMMARY:
%s

Provide a JSON response with the following structure:

{
  "effectSize": {
    "assessment": "large|medium|small|verySmall",
    "reasoning": "Brief explanation of effect size assessment",
    "examples": "Specific effect sizes mentioned if any"
  },
  "studyQuality": {
    "assessment": "metaAnalysis|rct|longitudinal|crossSectional|caseStudy",
    "reasoning": "Brief explanation of study quality assessment",
    "examples": "Types of studies mentioned"
  },
  "replication": {
    "assessment": "highlyConsistent|mostlyConsistent|mixed|inconsistent",
    "reasoning": "Brief explanation of replication consistency",
    "examples": "Evidence of replication or consistency"
  },
  "sampleSize": {
    "assessment": "large|medium|small",
    "reasoning": "Brief explanation of sample size assessment",
    "examples": "Sample sizes mentioned if any"
  },
  "confidence": "high|medium|low",
  "notes": "Any additional observations about the evidence quality"
}

Guidelines:
- Be conservative in your assessments
- If information is unclear or missing, default to lower scores
- Focus on the actual evidence presented, not general knowledge
- If multiple studies are mentioned, assess the overall pattern

Return ONLY the JSON object, no additional text.`, title, evidenceSummary)
}
