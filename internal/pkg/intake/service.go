package intake

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	perrors "github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/inform"
	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/lead"
	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/phone"
	"github.com/airenas/leadcall/internal/pkg/status"
	"github.com/airenas/leadcall/internal/pkg/telegram/api"
	"github.com/airenas/leadcall/internal/pkg/utils"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SecretHeader is a header with the webhook secret
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

var nameCmd = regexp.MustCompile(`(?i)^\s*name\s*:\s*([^\n]*)`)

// DB keeps recordings and leads
type DB interface {
	RecordingByFileID(ctx context.Context, fileID string) (*persistence.Recording, error)
	// InsertRecording saves the recording with an optional new lead atomically
	InsertRecording(ctx context.Context, r *persistence.Recording, newLead *persistence.Lead) error
	FindLeadByPhone(ctx context.Context, phone string) (*persistence.Lead, error)
	LatestCompletedUnlinked(ctx context.Context, chatID int64) (*persistence.Recording, error)
	// LinkNewLead saves the lead and links it to the recording atomically
	LinkNewLead(ctx context.Context, id string, l *persistence.Lead) error
	Live(ctx context.Context) error
}

// Replier sends a reply text to a chat
type Replier interface {
	Send(ctx context.Context, chatID int64, text string)
}

// Data keeps data required for service work
type Data struct {
	Port      int
	DB        DB
	MsgSender messages.Sender
	Replier   Replier
	Phones    *phone.Normalizer
	// Secret is compared with SecretHeader, empty - no check
	Secret string
	// AllowedChats restricts honored chats, empty - all chats
	AllowedChats map[int64]bool
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP leadcall intake service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return perrors.New("no DB")
	}
	if data.MsgSender == nil {
		return perrors.New("no msg sender")
	}
	if data.Replier == nil {
		return perrors.New("no replier")
	}
	if data.Phones == nil {
		return perrors.New("no phone normalizer")
	}
	if data.Secret == "" {
		goapp.Log.Warn().Msg("no webhook secret, requests are not verified")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("leadcall_intake", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/telegram/webhook", webhook(data))
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

func webhook(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("webhook method")()
		if !secretOK(data.Secret, c.Request().Header.Get(SecretHeader)) {
			return echo.NewHTTPError(http.StatusUnauthorized)
		}
		var upd api.Update
		if err := json.NewDecoder(c.Request().Body).Decode(&upd); err != nil {
			goapp.Log.Warn().Err(err).Msg("can't decode update")
			return echo.NewHTTPError(http.StatusBadRequest)
		}
		m := upd.Message
		if m == nil {
			return ok(c)
		}
		if len(data.AllowedChats) > 0 && !data.AllowedChats[m.Chat.ID] {
			goapp.Log.Info().Int64("chat", m.Chat.ID).Msg("skip not allowed chat")
			return ok(c)
		}
		ctx := c.Request().Context()
		var err error
		if af := m.AudioFile(); af != nil {
			err = handleAudio(ctx, data, m, af)
		} else if name, isCmd := parseName(m.Text); isCmd {
			err = handleName(ctx, data, m, name)
		}
		if err != nil {
			goapp.Log.Error().Err(err).Int64("chat", m.Chat.ID).Int64("msg", m.MessageID).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return ok(c)
	}
}

func ok(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, []byte(`{"ok":true}`))
}

func secretOK(expected, got string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

func handleAudio(ctx context.Context, data *Data, m *api.Message, af *api.AudioRef) error {
	fileName := resolveFileName(m.MessageID, af)
	info := data.Phones.Extract(fileName)
	if info == nil {
		goapp.Log.Info().Str("file", fileName).Msg("no phone in file name")
		data.Replier.Send(ctx, m.Chat.ID, inform.GuidanceText(fileName))
		return nil
	}
	existing, err := data.DB.RecordingByFileID(ctx, af.FileID)
	if err != nil {
		return fmt.Errorf("can't check duplicate: %w", err)
	}
	if existing != nil {
		goapp.Log.Info().Str("ID", existing.ID).Msg("duplicate file")
		data.Replier.Send(ctx, m.Chat.ID, inform.DuplicateText(existing))
		return nil
	}
	now := time.Now()
	captured := &inform.Captured{FileName: fileName, Phone: info.Phone}
	l, err := data.DB.FindLeadByPhone(ctx, info.Phone)
	if err != nil {
		return fmt.Errorf("can't find lead: %w", err)
	}
	var newLead *persistence.Lead
	if l == nil && info.Name != "" {
		newLead = lead.NewAutoLead(info.Name, info.Phone, now)
		l = newLead
	}
	rec := &persistence.Recording{ID: uuid.NewString(), PhoneNumber: info.Phone, TelegramFileID: af.FileID,
		TelegramMessageID: m.MessageID, TelegramChatID: m.Chat.ID, TelegramUserID: m.UserID(),
		OriginalFilename: fileName, FileSizeBytes: af.FileSize, Status: status.Pending.String(),
		Created: now, Updated: now}
	if l != nil {
		rec.LeadID = utils.ToSQLStr(l.ID)
		captured.LeadName = l.Name
	}
	if err := data.DB.InsertRecording(ctx, rec, newLead); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			data.Replier.Send(ctx, m.Chat.ID, inform.DuplicateText(nil))
			return nil
		}
		return fmt.Errorf("can't save recording: %w", err)
	}
	if newLead != nil {
		goapp.Log.Info().Str("lead", newLead.ID).Str("name", newLead.Name).Msg("lead created")
		captured.LeadCreated = true
	}
	goapp.Log.Info().Str("ID", rec.ID).Str("file", fileName).Str("lead", rec.LeadID.String).Msg("recording saved")
	if err := data.MsgSender.SendMessage(ctx, messages.NewRecordingMessage(rec.ID), messages.ProcessOpts()); err != nil {
		// the sweep re-enqueues pending recordings
		goapp.Log.Error().Err(err).Str("ID", rec.ID).Msg("can't enqueue")
	}
	data.Replier.Send(ctx, m.Chat.ID, inform.AcceptedText(captured))
	return nil
}

func handleName(ctx context.Context, data *Data, m *api.Message, name string) error {
	if utf8.RuneCountInString(name) < 2 {
		data.Replier.Send(ctx, m.Chat.ID, inform.NameInvalidText())
		return nil
	}
	rec, err := data.DB.LatestCompletedUnlinked(ctx, m.Chat.ID)
	if err != nil {
		return fmt.Errorf("can't find recording: %w", err)
	}
	if rec == nil {
		data.Replier.Send(ctx, m.Chat.ID, inform.NothingPendingText())
		return nil
	}
	ph := rec.PhoneNumber
	if ph == persistence.UnresolvedPhone {
		ph = ""
	}
	l := lead.NewLeadWithDetails(name, ph, insight.InferFromText(rec.TranscriptionText.String), time.Now())
	if err := data.DB.LinkNewLead(ctx, rec.ID, l); err != nil {
		if errors.Is(err, persistence.ErrChanged) {
			goapp.Log.Warn().Str("ID", rec.ID).Str("lead", l.ID).Msg("recording linked meanwhile")
			data.Replier.Send(ctx, m.Chat.ID, inform.NothingPendingText())
			return nil
		}
		return fmt.Errorf("can't link lead: %w", err)
	}
	goapp.Log.Info().Str("ID", rec.ID).Str("lead", l.ID).Str("name", l.Name).Msg("lead created by name")
	data.Replier.Send(ctx, m.Chat.ID, inform.LeadCreatedText(l, rec))
	return nil
}

// parseName returns the name of a NAME: command
func parseName(text string) (string, bool) {
	res := nameCmd.FindStringSubmatch(text)
	if res == nil {
		return "", false
	}
	return strings.TrimSpace(res[1]), true
}

func resolveFileName(msgID int64, af *api.AudioRef) string {
	if af.FileName != "" {
		return filepath.Base(af.FileName)
	}
	switch af.Kind {
	case "voice":
		return fmt.Sprintf("voice_%d.ogg", msgID)
	default:
		return fmt.Sprintf("%s_%d%s", af.Kind, msgID, utils.ExtByMIME(af.MimeType))
	}
}
