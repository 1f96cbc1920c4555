package main

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/inform"
	"github.com/airenas/leadcall/internal/pkg/intake"
	"github.com/airenas/leadcall/internal/pkg/phone"
	"github.com/airenas/leadcall/internal/pkg/postgres"
	"github.com/airenas/leadcall/internal/pkg/telegram"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &intake.Data{}
	data.Port = cfg.GetInt("port")
	data.Secret = cfg.GetString("telegram.secret")
	data.AllowedChats = toChatSet(cfg.GetIntSlice("telegram.allowedChats"))
	data.Phones = phone.NewNormalizer(cfg.GetString("phone.countryCode"))
	var err error

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	if cfg.GetBool("db.trace") {
		addDBLog(dbConfig)
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
	data.DB = db

	data.MsgSender, err = postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	tg, err := telegram.NewClient(cfg.GetString("telegram.url"), cfg.GetString("telegram.token"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init telegram client")
	}
	data.Replier, err = inform.NewNotifier(tg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init notifier")
	}

	utils.StartDebugEndpoint(cfg.GetInt("debug.port"))

	err = intake.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}

func toChatSet(ids []int) map[int64]bool {
	res := map[int64]bool{}
	for _, id := range ids {
		res[int64(id)] = true
	}
	goapp.Log.Info().Int("count", len(res)).Msg("allowed chats")
	return res
}

func addDBLog(dbConfig *pgxpool.Config) {
	logFunc := goapp.Log.Debug().Msg
	dbConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		logFunc("before connect")
		return nil
	}
	dbConfig.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		logFunc("after connect")
		return nil
	}
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
                                      
    _       __        __      
   (_)___  / /_____ _/ /_____ 
  / / __ \/ __/ __ ` + "`" + `/ //_/ _ \
 / / / / / /_/ /_/ / ,< /  __/
/_/_/ /_/\__/\__,_/_/|_|\___/  v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/leadcall"))
}
