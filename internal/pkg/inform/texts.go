package inform

import (
	"fmt"
	"html"
	"strings"

	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/utils"
)

// Captured describes what intake got from an audio message
type Captured struct {
	FileName    string
	Phone       string
	LeadName    string
	LeadCreated bool
}

// Result is data of a processed recording
type Result struct {
	Recording *persistence.Recording
	LeadName  string
	Insights  insight.CallInsights
	Details   *insight.LeadDetails
	// Filled holds names of lead fields filled by this run
	Filled []string
}

var sentimentIcon = map[string]string{insight.SentimentPositive: "🟢", insight.SentimentNegative: "🔴",
	insight.SentimentNeutral: "⚪", insight.SentimentMixed: "🟡"}

func esc(s string) string {
	return html.EscapeString(s)
}

// GuidanceText explains the expected file naming
func GuidanceText(fileName string) string {
	return fmt.Sprintf(`⚠️ Could not find a phone number in <b>%s</b>.

Please rename the recording and send it again. Supported names:
• <code>Name_9876543210_20240101.mp3</code>
• <code>Call_9876543210.m4a</code>
• <code>Call_+919876543210.ogg</code>`, esc(fileName))
}

// DuplicateText tells the file was already received
func DuplicateText(rec *persistence.Recording) string {
	res := "♻️ This recording was already received"
	if rec != nil {
		res += fmt.Sprintf(" (status: <b>%s</b>)", esc(rec.Status))
	}
	return res + ". Nothing to do."
}

// AcceptedText confirms the recording was queued
func AcceptedText(c *Captured) string {
	var sb strings.Builder
	sb.WriteString("✅ Recording received, processing started.\n")
	sb.WriteString(fmt.Sprintf("📞 Phone: <code>%s</code>\n", esc(c.Phone)))
	switch {
	case c.LeadName != "" && c.LeadCreated:
		sb.WriteString(fmt.Sprintf("🆕 New lead created: <b>%s</b>\n", esc(c.LeadName)))
	case c.LeadName != "":
		sb.WriteString(fmt.Sprintf("👤 Lead: <b>%s</b>\n", esc(c.LeadName)))
	default:
		sb.WriteString("❓ No lead found for this number.\n")
		sb.WriteString("After processing reply with <code>NAME: Customer Name</code> to create the lead.\n")
	}
	sb.WriteString(fmt.Sprintf("📁 %s", esc(c.FileName)))
	return sb.String()
}

// NameInvalidText asks for a longer name
func NameInvalidText() string {
	return "⚠️ Name is too short. Please send <code>NAME: Customer Name</code> with at least 2 characters."
}

// NothingPendingText tells there is no recording to link
func NothingPendingText() string {
	return "ℹ️ There is no processed recording without a lead in this chat. Nothing to do."
}

// LeadCreatedText confirms the name backfill
func LeadCreatedText(l *persistence.Lead, rec *persistence.Recording) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Lead <b>%s</b> created", esc(l.Name)))
	if rec != nil {
		sb.WriteString(fmt.Sprintf(" and linked to <b>%s</b>", esc(rec.OriginalFilename)))
	}
	sb.WriteString(".\n")
	sb.WriteString(fmt.Sprintf("Type: %s, %s", esc(l.LeadType), esc(l.Classification)))
	for _, f := range []struct{ name, v string }{{"Requirement", l.RequirementType}, {"Region", l.Region},
		{"Next action", l.NextAction}} {
		if f.v != "" {
			sb.WriteString(fmt.Sprintf("\n%s: %s", f.name, esc(f.v)))
		}
	}
	return sb.String()
}

// ResultText formats analysis results
func ResultText(r *Result) string {
	var sb strings.Builder
	rec := r.Recording
	sb.WriteString(fmt.Sprintf("📊 <b>Call analyzed</b>: %s\n", esc(rec.OriginalFilename)))
	if r.LeadName != "" {
		sb.WriteString(fmt.Sprintf("👤 %s, <code>%s</code>\n", esc(r.LeadName), esc(rec.PhoneNumber)))
	} else {
		sb.WriteString(fmt.Sprintf("📞 <code>%s</code>\n", esc(rec.PhoneNumber)))
	}
	if rec.DurationSeconds > 0 {
		sb.WriteString(fmt.Sprintf("⏱ %d:%02d\n", rec.DurationSeconds/60, rec.DurationSeconds%60))
	}
	sb.WriteString(fmt.Sprintf("%s Sentiment: <b>%s</b>, score impact: %+.2f\n", sentimentIcon[r.Insights.Sentiment],
		esc(r.Insights.Sentiment), r.Insights.ScoreImpact))
	if r.Insights.Summary != "" {
		sb.WriteString("\n" + esc(r.Insights.Summary) + "\n")
	}
	writeList(&sb, "Complaints", r.Insights.Complaints)
	writeList(&sb, "Negative feedback", r.Insights.NegativeFeedback)
	writeList(&sb, "Negotiation", r.Insights.NegotiationSignals)
	writeList(&sb, "Price expectations", r.Insights.PriceExpectations)
	writeList(&sb, "Positive signals", r.Insights.PositiveSignals)
	writeList(&sb, "Next steps", r.Insights.RecommendedActions)
	if d := r.Details; d != nil {
		sb.WriteString(fmt.Sprintf("\n🏷 %s, %s", esc(d.LeadType), esc(d.Classification)))
		if d.RequirementType != "" {
			sb.WriteString(", " + esc(d.RequirementType))
		}
		if d.EstimatedQuantity > 0 {
			sb.WriteString(fmt.Sprintf(", ~%d pcs", d.EstimatedQuantity))
		}
		if d.Region != "" {
			sb.WriteString("\n📍 " + esc(strings.TrimSpace(d.Region+" "+d.Location)))
		}
		sb.WriteString("\n")
	}
	if len(r.Filled) > 0 {
		sb.WriteString(fmt.Sprintf("✏️ Lead updated: %s\n", esc(strings.Join(r.Filled, ", "))))
	}
	if rec.AudioURL.Valid && rec.AudioURL.String != "" {
		sb.WriteString(fmt.Sprintf("\n🎧 <a href=\"%s\">Audio</a>", esc(rec.AudioURL.String)))
	}
	if !rec.LeadID.Valid {
		sb.WriteString("\nReply with <code>NAME: Customer Name</code> to create the lead.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeList(sb *strings.Builder, name string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n<b>%s</b>:\n", name))
	for _, s := range items {
		sb.WriteString("• " + esc(s) + "\n")
	}
}

// FailureText tells the origin chat processing failed
func FailureText(rec *persistence.Recording, err error) string {
	return fmt.Sprintf("❌ Processing of <b>%s</b> failed: %s\nIt will be retried automatically.",
		esc(rec.OriginalFilename), esc(utils.Limit(errText(err), 200)))
}

// HoldText tells the recording waits for a phone number
func HoldText(rec *persistence.Recording) string {
	return fmt.Sprintf("⏸ <b>%s</b> is on hold: the phone number is unknown. It will be processed when the number is set.",
		esc(rec.OriginalFilename))
}

// AlertText is a message for admins
func AlertText(rec *persistence.Recording, err error) string {
	return fmt.Sprintf("🚨 Recording %s failed (retry %d)\nfile: %s\nphone: %s\nchat: %d\nerror: %s",
		esc(rec.ID), rec.RetryCount, esc(rec.OriginalFilename), esc(rec.PhoneNumber), rec.TelegramChatID,
		esc(utils.Limit(errText(err), 500)))
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
