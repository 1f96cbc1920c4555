package insight

import (
	"context"
	"fmt"
	"testing"

	"github.com/airenas/leadcall/internal/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestNewExtractor(t *testing.T) {
	_, err := NewExtractor(nil)
	assert.NotNil(t, err)
	got, err := NewExtractor(&mockGenerator{})
	assert.Nil(t, err)
	assert.NotNil(t, got)
}

func TestExtractor_Insights(t *testing.T) {
	gen := &mockGenerator{}
	e, _ := NewExtractor(gen)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return(`{"sentiment":"mixed","summary":"olia","score_impact":-0.1}`, nil)

	got := e.Insights(test.Ctx(t), "customer asks for price")

	assert.Equal(t, SentimentMixed, got.Sentiment)
	assert.Equal(t, "olia", got.Summary)
	assert.Equal(t, -0.1, got.ScoreImpact)
	require.Len(t, gen.Calls, 1)
	prompt := gen.Calls[0].Arguments.String(1)
	assert.Contains(t, prompt, "customer asks for price")
	assert.Contains(t, prompt, `"mixed"`)
}

func TestExtractor_Insights_Fail(t *testing.T) {
	gen := &mockGenerator{}
	e, _ := NewExtractor(gen)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("", fmt.Errorf("olia"))

	got := e.Insights(test.Ctx(t), "transcript")

	assert.Equal(t, DefaultInsights(), got)
	assert.Equal(t, []string{ManualReviewAction}, got.RecommendedActions)
	assert.Equal(t, 0.0, got.ScoreImpact)
}

func TestExtractor_Insights_Prose(t *testing.T) {
	gen := &mockGenerator{}
	e, _ := NewExtractor(gen)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("Customer seems interested", nil)

	got := e.Insights(test.Ctx(t), "transcript")

	assert.Equal(t, SentimentNeutral, got.Sentiment)
	assert.Equal(t, "Customer seems interested", got.Summary)
}

func TestExtractor_Insights_NoTranscript(t *testing.T) {
	gen := &mockGenerator{}
	e, _ := NewExtractor(gen)

	got := e.Insights(test.Ctx(t), "  ")

	assert.Equal(t, DefaultInsights(), got)
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestExtractor_LeadDetails(t *testing.T) {
	gen := &mockGenerator{}
	e, _ := NewExtractor(gen)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("```json\n{\"lead_type\":\"Dealer\",\"region\":\"Avadi\"}\n```", nil)

	got := e.LeadDetails(test.Ctx(t), "transcript", "Robin")

	assert.Equal(t, LeadDetails{LeadType: LeadTypeDealer, Classification: ClassDirectCustomer, Region: "Avadi"}, got)
	assert.Contains(t, gen.Calls[0].Arguments.String(1), "Customer name: Robin")
}

func TestExtractor_LeadDetails_Fail(t *testing.T) {
	for _, tc := range []struct {
		name string
		resp string
		err  error
	}{
		{name: "error", err: fmt.Errorf("olia")},
		{name: "no json", resp: "I can't help"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gen := &mockGenerator{}
			e, _ := NewExtractor(gen)
			gen.On("GenerateText", mock.Anything, mock.Anything).Return(tc.resp, tc.err)

			assert.Equal(t, DefaultLeadDetails(), e.LeadDetails(test.Ctx(t), "transcript", ""))
			assert.Contains(t, gen.Calls[0].Arguments.String(1), "Customer name: unknown")
		})
	}
}
