package messages

import (
	"context"

	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "LEADCALL/"
	// Work queue name
	Work = st + "Work"
	// Inform  queue name
	Inform = st + "Inform"
)

const (
	// TypeProcess is a job type for a recording pipeline run
	TypeProcess = "process-recording"
	// TypeNotify is a job type for a chat notification
	TypeNotify = "notify"
)

// Options tells where to put a message
type Options struct {
	Queue string
	Type  string
}

// ProcessOpts returns options for recording messages
func ProcessOpts() *Options {
	return &Options{Queue: Work, Type: TypeProcess}
}

// NotifyOpts returns options for inform messages
func NotifyOpts() *Options {
	return &Options{Queue: Inform, Type: TypeNotify}
}

// Sender provides send msg functionality
type Sender interface {
	SendMessage(context.Context, amessages.Message, *Options) error
}

// RecordingMessage asks to process a recording, ID is a recording ID
type RecordingMessage struct {
	amessages.QueueMessage
}

// InformMessage is a text for a chat
type InformMessage struct {
	amessages.QueueMessage
	ChatID int64  `json:"chatID,omitempty"`
	Text   string `json:"text"`
	// Alert marks a message for admins
	Alert bool `json:"alert,omitempty"`
}

// NewRecordingMessage creates a message for a recording
func NewRecordingMessage(id string) *RecordingMessage {
	return &RecordingMessage{QueueMessage: amessages.QueueMessage{ID: id}}
}
