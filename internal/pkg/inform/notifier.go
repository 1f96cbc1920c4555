package inform

import (
	"context"
	"fmt"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/messages"
)

// ChatSender sends a text to a chat
type ChatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Notifier sends texts directly to a chat, errors are only logged
type Notifier struct {
	chat ChatSender
}

// NewNotifier creates notifier
func NewNotifier(chat ChatSender) (*Notifier, error) {
	if chat == nil {
		return nil, fmt.Errorf("no chat sender")
	}
	return &Notifier{chat: chat}, nil
}

// Send sends the text
func (n *Notifier) Send(ctx context.Context, chatID int64, text string) {
	if err := n.chat.SendMessage(ctx, chatID, text); err != nil {
		goapp.Log.Error().Err(err).Int64("chat", chatID).Msg("can't notify")
	}
}

// QueueNotifier puts texts into the inform queue, errors are only logged
type QueueNotifier struct {
	sender messages.Sender
}

// NewQueueNotifier creates queue notifier
func NewQueueNotifier(sender messages.Sender) (*QueueNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("no msg sender")
	}
	return &QueueNotifier{sender: sender}, nil
}

// Send queues a text for the chat
func (n *QueueNotifier) Send(ctx context.Context, id string, chatID int64, text string) {
	n.send(ctx, &messages.InformMessage{QueueMessage: amessages.QueueMessage{ID: id}, ChatID: chatID, Text: text})
}

// Alert queues a text for admins
func (n *QueueNotifier) Alert(ctx context.Context, id string, text string) {
	n.send(ctx, &messages.InformMessage{QueueMessage: amessages.QueueMessage{ID: id}, Text: text, Alert: true})
}

func (n *QueueNotifier) send(ctx context.Context, m *messages.InformMessage) {
	if err := n.sender.SendMessage(ctx, m, messages.NotifyOpts()); err != nil {
		goapp.Log.Error().Err(err).Str("ID", m.ID).Int64("chat", m.ChatID).Bool("alert", m.Alert).Msg("can't queue notification")
	}
}
