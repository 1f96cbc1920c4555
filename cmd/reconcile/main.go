package main

import (
	"context"
	"time"

	aclean "github.com/airenas/async-api/pkg/clean"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/postgres"
	"github.com/airenas/leadcall/internal/pkg/reconcile"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &reconcile.Data{}
	data.Port = cfg.GetInt("port")
	data.RetrySecret = cfg.GetString("reconcile.retrySecret")

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	sender, err := postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	maxRetries := defaultV(cfg.GetInt("reconcile.maxRetries"), 3)
	stuckAfter := defaultV(cfg.GetDuration("reconcile.stuckAfter"), time.Hour)
	rec, err := reconcile.NewReconciler(db, sender, maxRetries, stuckAfter)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init reconciler")
	}
	data.Retrier = rec
	data.DB = db

	tData := aclean.TimerData{}
	tData.IDsProvider = rec
	tData.Cleaner = rec
	tData.RunEvery = defaultV(cfg.GetDuration("reconcile.runEvery"), 10*time.Minute)

	goapp.Log.Info().Int("maxRetries", maxRetries).Dur("stuckAfter", stuckAfter).
		Dur("runEvery", tData.RunEvery).Msg("reconcile")

	printBanner()

	ctxTimer, cancelFunc := context.WithCancel(ctx)
	doneCh, err := aclean.StartCleanTimer(ctxTimer, &tData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start timer")
	}
	err = reconcile.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func defaultV[T comparable](v, d T) T {
	var e T
	if v == e {
		return d
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    __                   __           ____
   / /__  ____ _____/ /________ _/ / /
  / / _ \/ __ ` + "`" + `/ __  / ___/ __ ` + "`" + `/ / / 
 / /  __/ /_/ / /_/ / /__/ /_/ / / /  
/_/\___/\__,_/\__,_/\___/\__,_/_/_/   
                                      
                                       _ __   
   ________  _________  ____  _____(_) /__ 
  / ___/ _ \/ ___/ __ \/ __ \/ ___/ / / _ \
 / /  /  __/ /__/ /_/ / / / / /__/ / /  __/
/_/   \___/\___/\____/_/ /_/\___/_/_/\___/  v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/leadcall"))
}
