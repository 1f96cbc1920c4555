package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/telegram/api"
	"github.com/cenkalti/backoff/v4"
)

// MaxDownloadSize is a limit of a file downloaded by the bot
const MaxDownloadSize = 20 * 1024 * 1024

// Client calls bot API
type Client struct {
	httpclient      *http.Client
	url             string
	token           string
	timeout         time.Duration
	downloadTimeout time.Duration
	backoff         func() backoff.BackOff
}

// NewClient creates bot client
func NewClient(urlStr, token string) (*Client, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no url")
	}
	if token == "" {
		return nil, fmt.Errorf("no token")
	}
	res := Client{url: strings.TrimSuffix(urlStr, "/"), token: token}
	res.timeout = time.Second * 30
	res.downloadTimeout = time.Minute * 5
	res.httpclient = &http.Client{Transport: newTransport()}
	res.backoff = newSimpleBackoff
	return &res, nil
}

// SendMessage sends HTML formatted text to the chat
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	b, err := json.Marshal(api.SendMessage{ChatID: chatID, Text: text, ParseMode: "HTML", DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("can't marshal: %w", err)
	}
	_, err = invoke[json.RawMessage](ctx, c, "sendMessage", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	return err
}

// GetFile resolves file path by file id
func (c *Client) GetFile(ctx context.Context, fileID string) (*api.File, error) {
	res, err := invoke[api.File](ctx, c, "getFile", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet,
			c.methodURL("getFile")+"?file_id="+url.QueryEscape(fileID), nil)
	})
	if err != nil {
		return nil, err
	}
	if res.FilePath == "" {
		return nil, fmt.Errorf("no file path for %s", fileID)
	}
	return res, nil
}

// Download returns file content by file id
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("can't resolve file: %w", err)
	}
	goapp.Log.Info().Str("path", f.FilePath).Int64("size", f.FileSize).Msg("download")
	return goapp.InvokeWithBackoff(ctx, func() ([]byte, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.downloadTimeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL(f.FilePath), nil)
		if err != nil {
			return nil, false, err
		}
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call download: %w", redact(err, c.token))
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			return nil, goapp.IsRetryableCode(resp.StatusCode), fmt.Errorf("can't invoke download: %w", redact(err, c.token))
		}
		res, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't read body: %w", err)
		}
		if len(res) > MaxDownloadSize {
			return nil, false, fmt.Errorf("file too large")
		}
		return res, false, nil
	}, c.backoff())
}

func invoke[T any](ctx context.Context, c *Client, method string, makeReq func(context.Context) (*http.Request, error)) (*T, error) {
	return goapp.InvokeWithBackoff(ctx, func() (*T, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.timeout)
		defer cancelF()
		req, err := makeReq(ctx)
		if err != nil {
			return nil, false, err
		}
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call %s: %w", method, redact(err, c.token))
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		var res api.Response[T]
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			if resp.StatusCode >= 300 {
				return nil, goapp.IsRetryableCode(resp.StatusCode), fmt.Errorf("can't invoke %s: code %d", method, resp.StatusCode)
			}
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't decode %s: %w", method, err)
		}
		if !res.OK || resp.StatusCode >= 300 {
			return nil, goapp.IsRetryableCode(resp.StatusCode), fmt.Errorf("can't invoke %s: code %d, %s", method,
				resp.StatusCode, res.Description)
		}
		return &res.Result, false, nil
	}, c.backoff())
}

func (c *Client) methodURL(method string) string {
	return c.url + "/bot" + c.token + "/" + method
}

func (c *Client) fileURL(path string) string {
	return c.url + "/file/bot" + c.token + "/" + strings.TrimPrefix(path, "/")
}

func redact(err error, token string) error {
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "***"))
}

// Escape escapes user text for HTML parse mode
func Escape(s string) string {
	return html.EscapeString(s)
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
