package insight

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/airenas/leadcall/internal/pkg/utils"
)

// MaxFallbackSummary is the raw text limit when a response is not parseable
const MaxFallbackSummary = 500

var fenceRegexp = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// LocateJSON finds a JSON object in the model response,
// a fenced block is preferred, otherwise the text from the first '{' to the last '}'
func LocateJSON(s string) (string, bool) {
	if m := fenceRegexp.FindStringSubmatch(s); len(m) > 1 {
		return m[1], true
	}
	st, e := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if st < 0 || e <= st {
		return "", false
	}
	return s[st : e+1], true
}

// DecodeObject locates and decodes a JSON object in a model response
func DecodeObject(raw string) (map[string]any, bool) {
	js, ok := LocateJSON(raw)
	if !ok {
		return nil, false
	}
	var res map[string]any
	if err := json.Unmarshal([]byte(js), &res); err != nil || res == nil {
		return nil, false
	}
	return res, true
}

// ParseInsights parses model response into insights.
// Returns false if no JSON object was found, then the raw text is used as a summary
func ParseInsights(raw string) (CallInsights, bool) {
	m, ok := DecodeObject(raw)
	if !ok {
		res := DefaultInsights()
		res.RecommendedActions = []string{}
		res.Summary = utils.Limit(strings.TrimSpace(raw), MaxFallbackSummary)
		return res, false
	}
	return CallInsights{
		Sentiment:          oneOf(m["sentiment"], Sentiments, SentimentNeutral),
		Summary:            text(m["summary"]),
		Complaints:         list(m["complaints"]),
		NegativeFeedback:   list(m["negative_feedback"]),
		NegotiationSignals: list(m["negotiation_signals"]),
		PriceExpectations:  list(m["price_expectations"]),
		PositiveSignals:    list(m["positive_signals"]),
		RecommendedActions: list(m["recommended_actions"]),
		ScoreImpact:        ClampScore(m["score_impact"]),
	}, true
}

// ParseLeadDetails parses model response into lead details.
// Returns defaults and false if no JSON object was found
func ParseLeadDetails(raw string) (LeadDetails, bool) {
	m, ok := DecodeObject(raw)
	if !ok {
		return DefaultLeadDetails(), false
	}
	return LeadDetails{
		LeadType:          oneOf(m["lead_type"], LeadTypes, LeadTypeOther),
		Classification:    oneOf(m["classification"], Classifications, ClassDirectCustomer),
		RequirementType:   oneOf(m["requirement_type"], RequirementTypes, ""),
		Region:            text(m["region"]),
		Location:          text(m["location"]),
		NextAction:        text(m["next_action"]),
		EstimatedQuantity: quantity(m["estimated_quantity"]),
		Notes:             text(m["notes"]),
	}, true
}

// ClampScore converts v to a score in [-MaxScoreImpact, MaxScoreImpact], non numeric values give 0
func ClampScore(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		var err error
		if f, err = t.Float64(); err != nil {
			return 0
		}
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(-MaxScoreImpact, math.Min(MaxScoreImpact, f))
}

func oneOf(v any, allowed []string, def string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	for _, a := range allowed {
		if strings.EqualFold(a, s) || strings.EqualFold(a, strings.ReplaceAll(s, " ", "_")) {
			return a
		}
	}
	return def
}

func text(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "unknown":
		return ""
	}
	return s
}

func list(v any) []string {
	res := []string{}
	items, ok := v.([]any)
	if !ok {
		return res
	}
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			res = append(res, strings.TrimSpace(s))
			if len(res) == MaxListItems {
				break
			}
		}
	}
	return res
}

func quantity(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || f < 1 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
