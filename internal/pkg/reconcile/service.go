package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	perrors "github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/report"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultReportDays = 7
	maxReportDays     = 93
)

// Retrier resets a failed recording
type Retrier interface {
	Retry(ctx context.Context, id string) error
}

// ReportDB provides data for reports
type ReportDB interface {
	RecordingsSince(ctx context.Context, since time.Time) ([]*persistence.RecordingView, error)
	Live(ctx context.Context) error
}

// Data keeps data required for service work
type Data struct {
	Port        int
	Retrier     Retrier
	DB          ReportDB
	RetrySecret string
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msgf("Starting HTTP leadcall reconcile service")
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Retrier == nil {
		return perrors.New("no retrier")
	}
	if data.DB == nil {
		return perrors.New("no DB")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("leadcall_reconcile", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	if data.RetrySecret != "" {
		e.POST(fmt.Sprintf("/retry/%s/:id", data.RetrySecret), retry(data))
	}
	e.GET("/report", reportHandler(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.DB.Live(c.Request().Context()); err != nil {
			goapp.Log.Error().Err(err).Msg("db not live")
			return c.JSONBlob(http.StatusServiceUnavailable, []byte(`{"service":"OK","db":"FAIL"}`))
		}
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK","db":"OK"}`))
	}
}

type result struct {
	ID string `json:"id"`
}

func retry(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("retry method")()
		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		err := data.Retrier.Retry(c.Request().Context(), id)
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound)
		case errors.Is(err, ErrNotFailed), errors.Is(err, ErrHeld):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case err != nil:
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, result{ID: id})
	}
}

func reportHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("report method")()
		days := defaultReportDays
		if s := c.QueryParam("days"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 || v > maxReportDays {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("wrong days, expected 1-%d", maxReportDays))
			}
			days = v
		}
		rows, err := data.DB.RecordingsSince(c.Request().Context(), time.Now().AddDate(0, 0, -days))
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		var b bytes.Buffer
		if err := report.Write(&b, rows); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="recordings_%s.xlsx"`, time.Now().Format("20060102")))
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b.Bytes())
	}
}
