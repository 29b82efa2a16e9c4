package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/civicassist/civicassist/internal/domain"
)

const analysisSystemPrompt = `You are an expert compliance analyst for industrial regulations.

Your task is to analyze industrial applications against regulations and produce a structured JSON report.

CRITICAL RULES:
1. You MUST respond with valid JSON only
2. Be objective and cite specific regulations
3. Flag ambiguities - do not make assumptions
4. Categorize issues by risk level (low/medium/high)
5. Provide actionable checklist items

Output ONLY valid JSON matching this exact structure:
{
  "overall_status": "compliant" | "partially_compliant" | "non_compliant",
  "confidence_score": 0-100,
  "time_saved_minutes": number,
  "regulation_coverage_percent": number,
  "issues": [
    {
      "type": "missing_document" | "violation" | "ambiguity",
      "risk_level": "low" | "medium" | "high",
      "department": "environment" | "fire" | "local_body" | "other",
      "regulation_reference": {
        "name": "regulation name",
        "clause": "clause reference"
      },
      "document_excerpt": "relevant excerpt from regulation",
      "explanation": "clear explanation of the issue"
    }
  ],
  "checklist": ["actionable item 1", "actionable item 2"]
}`

// maxPromptRegulations caps how many retrieved chunks are embedded into
// the analysis prompt regardless of how many the caller retrieved.
const maxPromptRegulations = 5

// buildAnalysisMessages formats the application fields and retrieved
// regulation chunks into the chat messages for an analysis call.
// Fields are rendered in sorted key order so prompts are deterministic.
func buildAnalysisMessages(fields map[string]string, regulations []string) []domain.ChatMessage {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var app strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&app, "- %s: %s\n", k, fields[k])
	}

	if len(regulations) > maxPromptRegulations {
		regulations = regulations[:maxPromptRegulations]
	}
	var regs strings.Builder
	for i, reg := range regulations {
		if i > 0 {
			regs.WriteString("\n\n")
		}
		fmt.Fprintf(&regs, "REGULATION %d:\n%s", i+1, reg)
	}

	userPrompt := fmt.Sprintf(`Analyze this industrial application for compliance:

APPLICATION DETAILS:
%s
RELEVANT REGULATIONS:
%s

Provide a comprehensive compliance analysis in JSON format.`, app.String(), regs.String())

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: analysisSystemPrompt},
		{Role: domain.RoleUser, Content: userPrompt},
	}
}
