package insight

import (
	"fmt"
	"strings"
)

const insightsPrompt = `You analyze a sales call of a construction materials (concrete blocks) manufacturer.
Return ONLY a JSON object in a ` + "```json" + ` block with the fields:
  "sentiment": one of %s,
  "summary": two or three sentences about the call,
  "complaints": list of strings,
  "negative_feedback": list of strings,
  "negotiation_signals": list of strings,
  "price_expectations": list of strings,
  "positive_signals": list of strings,
  "recommended_actions": list of strings,
  "score_impact": number from -%.1f to %.1f, how the call changes the chance to win the customer.
Each list must have at most %d items. Use empty lists when nothing is mentioned.

Transcript:
%s`

const leadPrompt = `Extract customer details from a sales call of a construction materials (concrete blocks) manufacturer.
Customer name: %s
Return ONLY a JSON object in a ` + "```json" + ` block with the fields:
  "lead_type": one of %s,
  "classification": one of %s,
  "requirement_type": one of %s or null,
  "region": city or area, or null,
  "location": specific site location, or null,
  "next_action": the next step to take with the customer, or null,
  "estimated_quantity": number of blocks as an integer, or null,
  "notes": other important facts, or null.
Use null when the call does not mention a value.

Transcript:
%s`

func insightsPromptFor(transcript string) string {
	return fmt.Sprintf(insightsPrompt, quoted(Sentiments), MaxScoreImpact, MaxScoreImpact, MaxListItems, transcript)
}

func leadPromptFor(transcript, name string) string {
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf(leadPrompt, name, quoted(LeadTypes), quoted(Classifications), quoted(RequirementTypes), transcript)
}

func quoted(values []string) string {
	res := make([]string, len(values))
	for i, v := range values {
		res[i] = `"` + v + `"`
	}
	return strings.Join(res, ", ")
}
