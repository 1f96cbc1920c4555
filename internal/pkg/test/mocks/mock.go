package mocks

import (
	"context"
	"sync"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/audio"
	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/storage"
	"github.com/airenas/leadcall/internal/pkg/transcriber"
	"github.com/stretchr/testify/mock"
)

// Sender is postgres queue mock, keeps all sent messages
type Sender struct {
	mock.Mock
	lock sync.Mutex
	Msgs []Sent
}

// Sent is a message with its options
type Sent struct {
	Msg  amessages.Message
	Opts *messages.Options
}

// SendMessage func mock
func (m *Sender) SendMessage(ctx context.Context, msg amessages.Message, opts *messages.Options) error {
	m.lock.Lock()
	m.Msgs = append(m.Msgs, Sent{Msg: msg, Opts: opts})
	m.lock.Unlock()
	args := m.Called(ctx, msg, opts)
	return args.Error(0)
}

// Inform returns queued inform messages
func (m *Sender) Inform() []*messages.InformMessage {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := []*messages.InformMessage{}
	for _, s := range m.Msgs {
		if im, ok := s.Msg.(*messages.InformMessage); ok {
			res = append(res, im)
		}
	}
	return res
}

// Chat is a chat sender mock, keeps all texts
type Chat struct {
	mock.Mock
	lock  sync.Mutex
	Texts []string
}

// SendMessage func mock
func (m *Chat) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.lock.Lock()
	m.Texts = append(m.Texts, text)
	m.lock.Unlock()
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

// Downloader is a telegram file downloader mock
type Downloader struct{ mock.Mock }

// Download func mock
func (m *Downloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	args := m.Called(ctx, fileID)
	return To[[]byte](args.Get(0)), args.Error(1)
}

// Normalizer is an audio normalizer mock
type Normalizer struct{ mock.Mock }

// Normalize func mock
func (m *Normalizer) Normalize(ctx context.Context, data []byte, fileName string) (*audio.Result, error) {
	args := m.Called(ctx, data, fileName)
	return To[*audio.Result](args.Get(0)), args.Error(1)
}

// Uploader is an object store mock
type Uploader struct{ mock.Mock }

// Upload func mock
func (m *Uploader) Upload(ctx context.Context, name string, data []byte) (*storage.StoredFile, error) {
	args := m.Called(ctx, name, data)
	return To[*storage.StoredFile](args.Get(0)), args.Error(1)
}

// Transcriber is a transcription mock
type Transcriber struct{ mock.Mock }

// Transcribe func mock
func (m *Transcriber) Transcribe(ctx context.Context, data []byte, fileName string) (*transcriber.Result, error) {
	args := m.Called(ctx, data, fileName)
	return To[*transcriber.Result](args.Get(0)), args.Error(1)
}

// Extractor is an insight extractor mock
type Extractor struct{ mock.Mock }

// Insights func mock
func (m *Extractor) Insights(ctx context.Context, transcript string) insight.CallInsights {
	args := m.Called(ctx, transcript)
	return args.Get(0).(insight.CallInsights)
}

// LeadDetails func mock
func (m *Extractor) LeadDetails(ctx context.Context, transcript, leadName string) insight.LeadDetails {
	args := m.Called(ctx, transcript, leadName)
	return args.Get(0).(insight.LeadDetails)
}

// To converts a mock value, nil gives a zero value
func To[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
