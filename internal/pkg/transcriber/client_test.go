package transcriber

import (
	"context"
	"fmt"
	"testing"

	"github.com/airenas/leadcall/internal/pkg/gemini"
	"github.com/airenas/leadcall/internal/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) GenerateWithData(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	args := m.Called(ctx, prompt, mimeType, data)
	return args.String(0), args.Error(1)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.NotNil(t, err)
}

func TestTranscribe(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want *Result
	}{
		{name: "json", resp: "```json\n{\"transcript\":\"Speaker 1: hello\",\"language\":\"TA\",\"confidence\":0.8}\n```",
			want: &Result{Text: "Speaker 1: hello", Language: "ta", Confidence: 0.8}},
		{name: "bad confidence", resp: `{"transcript":"hello","language":"en","confidence":8}`,
			want: &Result{Text: "hello", Language: "en"}},
		{name: "raw text", resp: " hello there ", want: &Result{Text: "hello there"}},
		{name: "empty transcript", resp: `{"transcript":""}`, want: &Result{Text: Unavailable}},
		{name: "no transcript field", resp: `{"text":"a"}`, want: &Result{Text: Unavailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{}
			cl, _ := NewClient(gen)
			gen.On("GenerateWithData", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.resp, nil)

			got, err := cl.Transcribe(test.Ctx(t), []byte("audio"), "a.mp3")

			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranscribe_MIME(t *testing.T) {
	gen := &mockGenerator{}
	cl, _ := NewClient(gen)
	gen.On("GenerateWithData", mock.Anything, mock.Anything, "audio/ogg", []byte("audio")).Return("text", nil)

	_, err := cl.Transcribe(test.Ctx(t), []byte("audio"), "voice_1.ogg")

	require.Nil(t, err)
	gen.AssertExpectations(t)
}

func TestTranscribe_NoContent(t *testing.T) {
	gen := &mockGenerator{}
	cl, _ := NewClient(gen)
	gen.On("GenerateWithData", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("blocked: %w", gemini.ErrNoContent))

	got, err := cl.Transcribe(test.Ctx(t), []byte("audio"), "a.mp3")

	require.Nil(t, err)
	assert.Equal(t, &Result{Text: Unavailable}, got)
}

func TestTranscribe_Fail(t *testing.T) {
	gen := &mockGenerator{}
	cl, _ := NewClient(gen)
	gen.On("GenerateWithData", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("401"))

	_, err := cl.Transcribe(test.Ctx(t), []byte("audio"), "a.mp3")

	assert.NotNil(t, err)
}
