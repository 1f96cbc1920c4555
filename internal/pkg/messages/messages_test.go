package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordingMessage(t *testing.T) {
	assert.Equal(t, "id1", NewRecordingMessage("id1").ID)
}

func TestOpts(t *testing.T) {
	assert.Equal(t, &Options{Queue: "LEADCALL/Work", Type: "process-recording"}, ProcessOpts())
	assert.Equal(t, &Options{Queue: "LEADCALL/Inform", Type: "notify"}, NotifyOpts())
}

func TestInformMessage_JSON(t *testing.T) {
	b, err := json.Marshal(InformMessage{ChatID: 10, Text: "olia", Alert: true})
	require.Nil(t, err)
	var got InformMessage
	require.Nil(t, json.Unmarshal(b, &got))
	assert.Equal(t, int64(10), got.ChatID)
	assert.Equal(t, "olia", got.Text)
	assert.True(t, got.Alert)
}
