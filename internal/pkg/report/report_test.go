package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWrite(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	rows := []*persistence.RecordingView{
		{Recording: persistence.Recording{OriginalFilename: "Robin_9876543210.wav", PhoneNumber: "919876543210",
			Status: "completed", DurationSeconds: 75, Created: created, AISummary: utils.ToSQLStr("asks price"),
			AIInsights: []byte(`{"sentiment":"positive"}`), AudioURL: utils.ToSQLStr("http://s/a.mp3")},
			LeadName: "Robin"},
		{Recording: persistence.Recording{OriginalFilename: "b.ogg", PhoneNumber: "919876543211", Status: "failed",
			RetryCount: 2, Created: created, Error: utils.ToSQLStr("downloading failed: x")}},
	}
	var b bytes.Buffer
	require.Nil(t, Write(&b, rows))

	f, err := excelize.OpenReader(&b)
	require.Nil(t, err)
	defer f.Close()
	got, err := f.GetRows(Sheet)
	require.Nil(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Created", got[0][0])
	assert.Equal(t, []string{"2024-03-01 10:20:30", "Robin_9876543210.wav", "919876543210", "Robin", "completed",
		"0", "75", "", "positive", "", "asks price", "", "http://s/a.mp3"}, got[1])
	assert.Equal(t, "failed", got[2][4])
	assert.Equal(t, "2", got[2][5])
	assert.Equal(t, "downloading failed: x", got[2][11])
}

func TestWrite_Empty(t *testing.T) {
	var b bytes.Buffer
	require.Nil(t, Write(&b, nil))
	f, err := excelize.OpenReader(&b)
	require.Nil(t, err)
	defer f.Close()
	got, err := f.GetRows(Sheet)
	require.Nil(t, err)
	assert.Len(t, got, 1)
}
