package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// Sheet is a name of the recordings sheet
const Sheet = "Recordings"

var header = []any{"Created", "File", "Phone", "Lead", "Status", "Retries", "Duration, s", "Language",
	"Sentiment", "Score impact", "Summary", "Error", "Audio"}

// Write writes recordings as xlsx
func Write(w io.Writer, rows []*persistence.RecordingView) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return fmt.Errorf("can't rename sheet: %w", err)
	}
	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		return fmt.Errorf("can't write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("can't make style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(Sheet, "A1", last, style); err != nil {
		return fmt.Errorf("can't set style: %w", err)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := toRow(r)
		if err := f.SetSheetRow(Sheet, cell, &values); err != nil {
			return fmt.Errorf("can't write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(Sheet, "K", "K", 80); err != nil {
		return fmt.Errorf("can't set width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("can't write xlsx: %w", err)
	}
	return nil
}

func toRow(r *persistence.RecordingView) []any {
	sentiment := ""
	if len(r.AIInsights) > 0 {
		var ins insight.CallInsights
		if err := json.Unmarshal(r.AIInsights, &ins); err == nil {
			sentiment = ins.Sentiment
		}
	}
	var score any = ""
	if r.AIScoreImpact.Valid {
		score = r.AIScoreImpact.Float64
	}
	return []any{r.Created.UTC().Format(time.DateTime), r.OriginalFilename, r.PhoneNumber, r.LeadName, r.Status,
		r.RetryCount, r.DurationSeconds, utils.FromSQLStr(r.TranscriptionLanguage), sentiment, score,
		utils.FromSQLStr(r.AISummary), utils.FromSQLStr(r.Error), utils.FromSQLStr(r.AudioURL)}
}
