package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/audio"
	"github.com/airenas/leadcall/internal/pkg/gemini"
	"github.com/airenas/leadcall/internal/pkg/inform"
	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/postgres"
	"github.com/airenas/leadcall/internal/pkg/storage"
	"github.com/airenas/leadcall/internal/pkg/telegram"
	"github.com/airenas/leadcall/internal/pkg/transcriber"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/airenas/leadcall/internal/pkg/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &worker.ServiceData{}
	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	data.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.WorkerCount = defaultV(cfg.GetInt("worker.count"), 2)
	data.Testing = cfg.GetBool("worker.testing")
	sender, err := postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}
	data.Notifier, err = inform.NewQueueNotifier(sender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init notifier")
	}
	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.DB = db

	data.Downloader, err = telegram.NewClient(cfg.GetString("telegram.url"), cfg.GetString("telegram.token"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init telegram client")
	}
	data.Audio, err = audio.NewNormalizer(defaultV(cfg.GetString("audio.ffmpeg"), "ffmpeg"),
		defaultV(cfg.GetString("audio.ffprobe"), "ffprobe"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init audio normalizer")
	}
	data.Uploader, err = storage.NewStore(ctx, storage.Options{URL: cfg.GetString("storage.url"),
		User: cfg.GetString("storage.user"), Key: cfg.GetString("storage.key"), Bucket: cfg.GetString("storage.bucket"),
		HTTPS: cfg.GetBool("storage.https"), PublicURL: cfg.GetString("storage.publicURL")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init storage")
	}
	gen, err := gemini.NewClient(defaultV(cfg.GetString("gemini.url"), "https://generativelanguage.googleapis.com"),
		cfg.GetString("gemini.key"), defaultV(cfg.GetString("gemini.model"), "gemini-1.5-flash"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gemini")
	}
	data.Transcriber, err = transcriber.NewClient(gen)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcriber")
	}
	data.Extractor, err = insight.NewExtractor(gen)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init extractor")
	}

	utils.StartDebugEndpoint(cfg.GetInt("debug.port"))

	printBanner()

	ctx, cancelFunc := context.WithCancel(context.Background())
	doneCh, err := worker.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start worker service")
	}
	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
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
/_/\___/\__,_/\__,_/\___/\__,_/_/_/   v: %s
                                      
                      __            
 _      ______  _____/ /_____  _____
| | /| / / __ \/ ___/ //_/ _ \/ ___/
| |/ |/ / /_/ / /  / ,< /  __/ /    
|__/|__/\____/_/  /_/|_|\___/_/     

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/leadcall"))
}
