package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// Ctx returns a context canceled on test end or after 20s
func Ctx(t *testing.T) context.Context {
	t.Helper()
	ctx, cf := context.WithTimeout(context.Background(), time.Second*20)
	t.Cleanup(cf)
	return ctx
}

// Code serves the request with the router and checks the response code
func Code(t *testing.T, e *echo.Echo, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, req)
	require.Equal(t, code, resp.Code, resp.Body.String())
	return resp
}
