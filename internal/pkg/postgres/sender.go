package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

// Sender performs messages sending using postgress gue
type Sender struct {
	gc *gue.Client
}

// NewSender initializes gue sender
func NewSender(pool *pgxpool.Pool) (*Sender, error) {
	gc, err := gue.NewClient(pgxv5.NewConnPool(pool))
	if err != nil {
		return nil, fmt.Errorf("can't init gue: %w", err)
	}
	return &Sender{gc: gc}, nil
}

// SendMessage enqueues the message as a job of opts.Type into opts.Queue
func (sender *Sender) SendMessage(ctx context.Context, msg amessages.Message, opts *messages.Options) error {
	if opts == nil || opts.Queue == "" || opts.Type == "" {
		return fmt.Errorf("no queue options")
	}
	goapp.Log.Debug().Str("queue", opts.Queue).Str("type", opts.Type).Msg("Sending message")
	args, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("can't marshal msg: %w", err)
	}
	j := &gue.Job{
		Type:  opts.Type,
		Queue: opts.Queue,
		Args:  args,
	}
	if err := sender.gc.Enqueue(ctx, j); err != nil {
		return fmt.Errorf("can't send msg to %s: %w", opts.Queue, err)
	}
	goapp.Log.Debug().Str("queue", opts.Queue).Msg("Sent")
	return nil
}
