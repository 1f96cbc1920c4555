package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
)

// Generator sends a text prompt to a generative model
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Extractor gets insights and lead details from a transcript.
// It never returns an error, failures degrade to default values
type Extractor struct {
	gen Generator
}

// NewExtractor creates new extractor
func NewExtractor(gen Generator) (*Extractor, error) {
	if gen == nil {
		return nil, fmt.Errorf("no generator")
	}
	return &Extractor{gen: gen}, nil
}

// Insights returns qualitative insights of a call
func (e *Extractor) Insights(ctx context.Context, transcript string) CallInsights {
	if strings.TrimSpace(transcript) == "" {
		return DefaultInsights()
	}
	raw, err := e.gen.GenerateText(ctx, insightsPromptFor(transcript))
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't get insights")
		return DefaultInsights()
	}
	res, ok := ParseInsights(raw)
	if !ok {
		goapp.Log.Warn().Str("response", goapp.Sanitize(raw)).Msg("no json in insights response")
	}
	return res
}

// LeadDetails returns lead attributes mentioned in a call
func (e *Extractor) LeadDetails(ctx context.Context, transcript, leadName string) LeadDetails {
	if strings.TrimSpace(transcript) == "" {
		return DefaultLeadDetails()
	}
	raw, err := e.gen.GenerateText(ctx, leadPromptFor(transcript, leadName))
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't get lead details")
		return DefaultLeadDetails()
	}
	res, ok := ParseLeadDetails(raw)
	if !ok {
		goapp.Log.Warn().Str("response", goapp.Sanitize(raw)).Msg("no json in lead details response")
	}
	return res
}
