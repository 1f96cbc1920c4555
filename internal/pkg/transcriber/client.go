package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/gemini"
	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/utils"
)

// Unavailable is a transcript placeholder used when the model returns nothing
const Unavailable = "[Transcription unavailable]"

const prompt = `Transcribe this phone call recording. The call may be in Tamil, English, Hindi or a mix of them.
Return ONLY a JSON object in a ` + "```json" + ` block with the fields:
  "transcript": the full transcript, mark speakers as "Speaker 1:", "Speaker 2:",
  "language": ISO 639-1 code of the main language,
  "confidence": your confidence in the transcript from 0 to 1.`

// Generator sends a prompt with inline data to a generative model
type Generator interface {
	GenerateWithData(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

// Result of transcription
type Result struct {
	Text       string
	Language   string
	Confidence float64
}

// Client transcribes audio with a generative model
type Client struct {
	gen Generator
}

// NewClient creates a transcriber client
func NewClient(gen Generator) (*Client, error) {
	if gen == nil {
		return nil, fmt.Errorf("no generator")
	}
	return &Client{gen: gen}, nil
}

// Transcribe returns a transcript, fileName is used only to detect the audio type.
// Model failures give a placeholder result, transport or auth errors are returned
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName string) (*Result, error) {
	mimeType := utils.AudioMIME(fileName)
	goapp.Log.Info().Str("file", fileName).Str("mime", mimeType).Int("bytes", len(audio)).Msg("transcribe")
	raw, err := c.gen.GenerateWithData(ctx, prompt, mimeType, audio)
	if err != nil {
		if errors.Is(err, gemini.ErrNoContent) {
			goapp.Log.Warn().Err(err).Msg("no transcript")
			return &Result{Text: Unavailable}, nil
		}
		return nil, fmt.Errorf("can't transcribe: %w", err)
	}
	return parse(raw), nil
}

func parse(raw string) *Result {
	m, ok := insight.DecodeObject(raw)
	if !ok {
		if strings.TrimSpace(raw) == "" {
			return &Result{Text: Unavailable}
		}
		return &Result{Text: strings.TrimSpace(raw)}
	}
	res := &Result{}
	res.Text, _ = m["transcript"].(string)
	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return &Result{Text: Unavailable}
	}
	res.Language, _ = m["language"].(string)
	res.Language = strings.ToLower(strings.TrimSpace(res.Language))
	if c, ok := m["confidence"].(float64); ok && c >= 0 && c <= 1 {
		res.Confidence = c
	}
	return res
}
