package utils

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/airenas/go-app/pkg/goapp"

	_ "net/http/pprof"
)

// StartDebugEndpoint serves pprof in background, port 0 disables it
func StartDebugEndpoint(port int) {
	if port <= 0 {
		goapp.Log.Info().Msg("no debug.port, pprof disabled")
		return
	}
	srv := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: http.DefaultServeMux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		goapp.Log.Info().Int("port", port).Msg("Starting debug endpoint")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			goapp.Log.Error().Err(err).Msg("can't start debug endpoint")
		}
	}()
}
