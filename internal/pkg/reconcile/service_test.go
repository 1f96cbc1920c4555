package reconcile

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/report"
	"github.com/airenas/leadcall/internal/pkg/test"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	retrierMock *mockRetrier
	tData       *Data
	tEcho       *echo.Echo
)

func initServerTest(t *testing.T) {
	t.Helper()
	initTest(t)
	retrierMock = &mockRetrier{}
	tData = &Data{Retrier: retrierMock, DB: dbMock, RetrySecret: "sec"}
	tEcho = initRoutes(tData)
}

func TestWrongPath(t *testing.T) {
	initServerTest(t)
	req := httptest.NewRequest(http.MethodGet, "/invalid", nil)
	test.Code(t, tEcho, req, http.StatusNotFound)
}

func TestLive(t *testing.T) {
	initServerTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	test.Code(t, tEcho, req, http.StatusOK)
}

func TestRetryEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "OK", err: nil, wantCode: http.StatusOK},
		{name: "Not found", err: persistence.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "Not failed", err: ErrNotFailed, wantCode: http.StatusConflict},
		{name: "Held", err: ErrHeld, wantCode: http.StatusConflict},
		{name: "Fail", err: assert.AnError, wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initServerTest(t)
			retrierMock.On("Retry", mock.Anything, "r1").Return(tt.err)
			req := httptest.NewRequest(http.MethodPost, "/retry/sec/r1", nil)
			test.Code(t, tEcho, req, tt.wantCode)
		})
	}
}

func TestRetryEndpoint_WrongSecret(t *testing.T) {
	initServerTest(t)
	req := httptest.NewRequest(http.MethodPost, "/retry/other/r1", nil)
	test.Code(t, tEcho, req, http.StatusNotFound)
	assert.Empty(t, retrierMock.Calls)
}

func TestRetryEndpoint_NoSecret(t *testing.T) {
	initServerTest(t)
	tData.RetrySecret = ""
	tEcho = initRoutes(tData)
	req := httptest.NewRequest(http.MethodPost, "/retry//r1", nil)
	test.Code(t, tEcho, req, http.StatusNotFound)
}

func TestReport(t *testing.T) {
	initServerTest(t)
	add(t, "r1", "completed", "919876543210", 0, "", time.Hour)
	add(t, "r2", "failed", "919876543211", 1, "x", time.Hour*24*10)

	req := httptest.NewRequest(http.MethodGet, "/report?days=2", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)

	assert.Contains(t, resp.Header().Get(echo.HeaderContentDisposition), ".xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	require.Nil(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.Sheet)
	require.Nil(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "919876543210", rows[1][2])
}

func TestReport_WrongDays(t *testing.T) {
	for _, d := range []string{"0", "-1", "a", "1000"} {
		t.Run(d, func(t *testing.T) {
			initServerTest(t)
			req := httptest.NewRequest(http.MethodGet, "/report?days="+d, nil)
			test.Code(t, tEcho, req, http.StatusBadRequest)
		})
	}
}

func Test_validate(t *testing.T) {
	initServerTest(t)
	assert.Nil(t, validate(tData))
	assert.NotNil(t, validate(&Data{DB: dbMock}))
	assert.NotNil(t, validate(&Data{Retrier: retrierMock}))
}

type mockRetrier struct{ mock.Mock }

func (m *mockRetrier) Retry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
