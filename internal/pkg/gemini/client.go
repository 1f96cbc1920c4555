package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/gemini/api"
	"github.com/cenkalti/backoff/v4"
)

// ErrNoContent is returned when the model answers with no text
var ErrNoContent = errors.New("no content")

// Client calls generative model REST API
type Client struct {
	httpclient  *http.Client
	url         string
	key         string
	model       string
	temperature float64
	timeout     time.Duration
	backoff     func() backoff.BackOff
}

// NewClient creates a model client
func NewClient(urlStr, key, model string) (*Client, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no url")
	}
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if model == "" {
		return nil, fmt.Errorf("no model")
	}
	u, err := url.JoinPath(urlStr, "v1beta", "models", model+":generateContent")
	if err != nil {
		return nil, fmt.Errorf("can't prepare url: %w", err)
	}
	res := Client{url: u, key: key, model: model}
	res.timeout = time.Minute * 3
	res.temperature = 0.2
	res.httpclient = &http.Client{Transport: newTransport()}
	res.backoff = newSimpleBackoff
	return &res, nil
}

// GenerateText sends a text prompt
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, []api.Part{{Text: prompt}})
}

// GenerateWithData sends a text prompt with inline data, ex. audio
func (c *Client) GenerateWithData(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	return c.Generate(ctx, []api.Part{{Text: prompt},
		{InlineData: &api.InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}}})
}

// Generate calls the model and returns joined text of the first candidate
func (c *Client) Generate(ctx context.Context, parts []api.Part) (string, error) {
	b, err := json.Marshal(api.Request{Contents: []api.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &api.GenerationConfig{Temperature: c.temperature}})
	if err != nil {
		return "", fmt.Errorf("can't marshal request: %w", err)
	}
	defer goapp.Estimate("gemini " + c.model)()
	resp, err := goapp.InvokeWithBackoff(ctx, func() (*api.Response, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.key)
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return nil, goapp.IsRetryableCode(resp.StatusCode), err
		}
		var res api.Response
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't decode response: %w", err)
		}
		return &res, false, nil
	}, c.backoff())
	if err != nil {
		return "", err
	}
	return textOf(resp)
}

func textOf(resp *api.Response) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("blocked %s: %w", resp.PromptFeedback.BlockReason, ErrNoContent)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoContent
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	res := strings.TrimSpace(sb.String())
	if res == "" {
		return "", fmt.Errorf("finish reason '%s': %w", resp.Candidates[0].FinishReason, ErrNoContent)
	}
	return res, nil
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 20
	res.MaxIdleConns = 10
	res.MaxIdleConnsPerHost = 10
	res.IdleConnTimeout = 90 * time.Second
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
