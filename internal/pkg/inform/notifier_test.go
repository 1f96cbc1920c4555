package inform

import (
	"testing"

	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/test"
	"github.com/airenas/leadcall/internal/pkg/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Send(t *testing.T) {
	chat := &mocks.Chat{}
	chat.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	n, err := NewNotifier(chat)
	require.Nil(t, err)

	n.Send(test.Ctx(t), 10, "olia")

	chat.AssertCalled(t, "SendMessage", mock.Anything, int64(10), "olia")
}

func TestNewNotifier_Fail(t *testing.T) {
	_, err := NewNotifier(nil)
	assert.NotNil(t, err)
	_, err = NewQueueNotifier(nil)
	assert.NotNil(t, err)
}

func TestQueueNotifier(t *testing.T) {
	sender := &mocks.Sender{}
	sender.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	n, err := NewQueueNotifier(sender)
	require.Nil(t, err)

	n.Send(test.Ctx(t), "r1", 10, "done")
	n.Alert(test.Ctx(t), "r1", "boom")

	msgs := sender.Inform()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(10), msgs[0].ChatID)
	assert.False(t, msgs[0].Alert)
	assert.Equal(t, "r1", msgs[1].ID)
	assert.True(t, msgs[1].Alert)
	assert.Equal(t, "boom", msgs[1].Text)
	for _, s := range sender.Msgs {
		assert.Equal(t, messages.NotifyOpts(), s.Opts)
	}
}
