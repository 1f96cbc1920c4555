package inform

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/airenas/leadcall/internal/pkg/utils/handler"
	"github.com/jordan-wright/email"
	"github.com/vgarvardt/gue/v5"
)

var tagRegexp = regexp.MustCompile(`<[^>]*>`)

// Sender send emails
type Sender interface {
	Send(email *email.Email) error
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	Chat        ChatSender
	// EmailSender is used for alerts only, may be nil
	EmailSender Sender
	AdminChat   int64
	AlertEmails []string
	EmailFrom   string
	Testing     bool
}

// StartWorkerService starts the event queue listener service to listen for inform events
// returns channel for tracking when all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Msg("Starting listen for messages")

	wm := gue.WorkMap{
		messages.TypeNotify: handler.Create(data, handleInform,
			handler.DefaultOpts[messages.InformMessage]().WithTimeout(time.Minute).
				WithBackoff(handler.DefaultBackoffOrTest(data.Testing))),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.Inform),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("leadcall-inform"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}

func handleInform(ctx context.Context, m *messages.InformMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Int64("chat", m.ChatID).Bool("alert", m.Alert).Msg("handling")
	if m.Alert {
		return alert(ctx, m, data)
	}
	if m.ChatID == 0 {
		goapp.Log.Warn().Str("ID", m.ID).Msg("no chat, skip")
		return nil
	}
	if err := data.Chat.SendMessage(ctx, m.ChatID, m.Text); err != nil {
		return fmt.Errorf("can't send to chat: %w", err)
	}
	return nil
}

// alert fails only while nothing is delivered yet
func alert(ctx context.Context, m *messages.InformMessage, data *ServiceData) error {
	sent := false
	if data.AdminChat != 0 {
		if err := data.Chat.SendMessage(ctx, data.AdminChat, m.Text); err != nil {
			return fmt.Errorf("can't send to admin chat: %w", err)
		}
		sent = true
	}
	if len(data.AlertEmails) > 0 && data.EmailSender != nil {
		if err := data.EmailSender.Send(makeEmail(m, data)); err != nil {
			if sent {
				goapp.Log.Error().Err(err).Str("ID", m.ID).Msg("can't send alert email")
				return nil
			}
			return fmt.Errorf("can't send email: %w", err)
		}
	}
	return nil
}

func makeEmail(m *messages.InformMessage, data *ServiceData) *email.Email {
	res := email.NewEmail()
	res.From = data.EmailFrom
	res.To = data.AlertEmails
	res.Subject = "Leadcall alert: recording " + m.ID
	res.Text = []byte(plainText(m.Text))
	res.HTML = []byte(strings.ReplaceAll(m.Text, "\n", "<br>\n"))
	return res
}

func plainText(s string) string {
	return html.UnescapeString(tagRegexp.ReplaceAllString(s, ""))
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.Chat == nil {
		return fmt.Errorf("no chat sender")
	}
	if len(data.AlertEmails) > 0 && data.EmailSender == nil {
		return fmt.Errorf("no EmailSender")
	}
	if data.AdminChat == 0 && len(data.AlertEmails) == 0 {
		goapp.Log.Warn().Msg("no admin chat or emails, alerts will be dropped")
	}
	return nil
}
