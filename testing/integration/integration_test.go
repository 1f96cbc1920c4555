//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/airenas/leadcall/internal/pkg/intake"
	"github.com/airenas/leadcall/internal/pkg/postgres"
	"github.com/airenas/leadcall/internal/pkg/telegram/api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type config struct {
	intakeURL    string
	reconcileURL string
	dbURL        string
	secret       string
	chatID       int64
	httpclient   *http.Client
	db           *postgres.DB
}

var cfg config

var replies = &replyLog{}

type replyLog struct {
	lock  sync.Mutex
	texts []string
}

func (r *replyLog) add(s string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.texts = append(r.texts, s)
}

func (r *replyLog) contains(s string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, t := range r.texts {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

func TestMain(m *testing.M) {
	cfg.intakeURL = GetEnvOrFail("INTAKE_URL")
	cfg.reconcileURL = GetEnvOrFail("RECONCILE_URL")
	cfg.dbURL = GetEnvOrFail("DB_URL")
	cfg.secret = GetEnvOr("TELEGRAM_SECRET", "olia")
	chat, err := strconv.ParseInt(GetEnvOr("CHAT_ID", "100"), 10, 64)
	if err != nil {
		log.Fatalf("FAIL: wrong CHAT_ID: %v", err)
	}
	cfg.chatID = chat
	cfg.httpclient = &http.Client{Timeout: time.Second * 30}

	tCtx, cf := context.WithTimeout(context.Background(), time.Second*20)
	defer cf()
	WaitForOpenOrFail(tCtx, cfg.dbURL)
	WaitForOpenOrFail(tCtx, cfg.intakeURL)
	WaitForOpenOrFail(tCtx, cfg.reconcileURL)
	db, closeFunc := newDB(tCtx, cfg.dbURL)
	defer closeFunc()
	waitForDB(tCtx, db)
	cfg.db = db

	// telegram bot API mock
	l, ts := startMockService(9876)
	defer ts.Close()
	defer l.Close()

	os.Exit(m.Run())
}

func TestIntakeLive(t *testing.T) {
	t.Parallel()
	CheckCode(t, Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.intakeURL, "/live", nil)), http.StatusOK)
}

func TestReconcileLive(t *testing.T) {
	t.Parallel()
	CheckCode(t, Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.reconcileURL, "/live", nil)), http.StatusOK)
}

func TestWebhook_Fail_Secret(t *testing.T) {
	t.Parallel()
	req := newWebhookRequest(t, &api.Update{UpdateID: 1})
	req.Header.Set(intake.SecretHeader, "wrong")
	CheckCode(t, Invoke(t, cfg.httpclient, req), http.StatusUnauthorized)
}

func TestWebhook_Fail_JSON(t *testing.T) {
	t.Parallel()
	req := NewRequest(t, http.MethodPost, cfg.intakeURL, "/telegram/webhook", "{olia")
	req.Header.Set(intake.SecretHeader, cfg.secret)
	CheckCode(t, Invoke(t, cfg.httpclient, req), http.StatusBadRequest)
}

func TestWebhook_NoMessage(t *testing.T) {
	t.Parallel()
	CheckCode(t, Invoke(t, cfg.httpclient, newWebhookRequest(t, &api.Update{UpdateID: 2})), http.StatusOK)
}

func TestWebhook_Voice_NoPhone(t *testing.T) {
	t.Parallel()
	fileID := uuid.NewString()
	upd := &api.Update{UpdateID: 3, Message: &api.Message{MessageID: 3, Chat: api.Chat{ID: cfg.chatID},
		Voice: &api.Voice{FileID: fileID, MimeType: "audio/ogg"}}}
	CheckCode(t, Invoke(t, cfg.httpclient, newWebhookRequest(t, upd)), http.StatusOK)

	r, err := cfg.db.RecordingByFileID(context.Background(), fileID)
	require.Nil(t, err)
	assert.Nil(t, r)
	assert.True(t, replies.contains("Could not find a phone number"))
}

func TestWebhook_Audio(t *testing.T) {
	t.Parallel()
	fileID := uuid.NewString()
	upd := &api.Update{UpdateID: 4, Message: &api.Message{MessageID: 4, Chat: api.Chat{ID: cfg.chatID},
		Audio: &api.Audio{FileID: fileID, FileName: "Integration_9876543210_20240101.m4a",
			MimeType: "audio/mp4"}}}
	CheckCode(t, Invoke(t, cfg.httpclient, newWebhookRequest(t, upd)), http.StatusOK)

	r, err := cfg.db.RecordingByFileID(context.Background(), fileID)
	require.Nil(t, err)
	require.NotNil(t, r)
	assert.NotEmpty(t, r.PhoneNumber)
	assert.True(t, r.LeadID.Valid)

	// the same file again is rejected as duplicate
	CheckCode(t, Invoke(t, cfg.httpclient, newWebhookRequest(t, upd)), http.StatusOK)
	r2, err := cfg.db.RecordingByFileID(context.Background(), fileID)
	require.Nil(t, err)
	assert.Equal(t, r.ID, r2.ID)
	assert.True(t, replies.contains("already received"))
}

func TestReport(t *testing.T) {
	t.Parallel()
	resp := Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.reconcileURL, "/report?days=3", nil))
	CheckCode(t, resp, http.StatusOK)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	b, err := io.ReadAll(resp.Body)
	require.Nil(t, err)
	assert.NotEmpty(t, b)
}

func TestReport_Fail_Days(t *testing.T) {
	t.Parallel()
	CheckCode(t, Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.reconcileURL, "/report?days=0", nil)),
		http.StatusBadRequest)
}

func newWebhookRequest(t *testing.T, upd *api.Update) *http.Request {
	t.Helper()
	req := NewRequest(t, http.MethodPost, cfg.intakeURL, "/telegram/webhook", upd)
	req.Header.Set(intake.SecretHeader, cfg.secret)
	return req
}

func startMockService(port int) (net.Listener, *httptest.Server) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		log.Fatalf("can't start mock service: %v", err)
	}
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			b, _ := io.ReadAll(r.Body)
			replies.add(string(b))
			_, _ = io.Copy(w, strings.NewReader(`{"ok":true,"result":{}}`))
		default:
			log.Printf("Unknown request to: %s", r.URL.String())
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ts.Listener.Close()
	ts.Listener = l

	ts.Start()
	log.Printf("started mock srv on port: %d", port)
	return l, ts
}
