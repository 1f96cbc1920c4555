package persistence

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrDuplicate is returned when a recording for the same file exists
	ErrDuplicate = errors.New("duplicate")
	// ErrNotFound is returned when no record found
	ErrNotFound = errors.New("not found")
	// ErrChanged is returned when the record was changed by someone else
	ErrChanged = errors.New("record changed")
)

const (
	// UnresolvedPhone marks a recording whose phone number is not known yet
	UnresolvedPhone = "unresolved"
	// HoldError is an error of a recording waiting for a phone number
	HoldError = "on hold: phone number unresolved"
)

type (

	//Recording table
	Recording struct {
		ID                      string
		LeadID                  sql.NullString
		PhoneNumber             string
		TelegramFileID          string
		TelegramMessageID       int64
		TelegramChatID          int64
		TelegramUserID          int64
		OriginalFilename        string
		FileSizeBytes           int64
		DurationSeconds         int
		Status                  string
		RetryCount              int
		Error                   sql.NullString
		AudioFileID             sql.NullString
		AudioURL                sql.NullString
		TranscriptionText       sql.NullString
		TranscriptionLanguage   sql.NullString
		TranscriptionConfidence sql.NullFloat64
		AISummary               sql.NullString
		AIInsights              []byte
		AIScoreImpact           sql.NullFloat64
		Created                 time.Time
		Updated                 time.Time
		Processed               sql.NullTime
	}

	//Lead table, owned by the CRM
	Lead struct {
		ID                string
		Name              string
		ContactNumber     string
		Source            string
		Status            string
		LeadType          string
		Classification    string
		RequirementType   string
		Region            string
		Location          string
		NextAction        string
		EstimatedQuantity int
		Notes             string
		Created           time.Time
		Updated           time.Time
	}

	// RecordingView is a recording with its lead name for reports
	RecordingView struct {
		Recording
		LeadName string
	}

	// LeadPatch holds the lead columns to update, nil means keep
	LeadPatch struct {
		LeadType          *string
		Classification    *string
		RequirementType   *string
		Region            *string
		Location          *string
		NextAction        *string
		EstimatedQuantity *int
		Notes             *string
	}
)

// Empty returns true if there is nothing to update
func (p *LeadPatch) Empty() bool {
	return p == nil || (p.LeadType == nil && p.Classification == nil && p.RequirementType == nil &&
		p.Region == nil && p.Location == nil && p.NextAction == nil && p.EstimatedQuantity == nil && p.Notes == nil)
}

// Apply writes patch values into the lead
func (p *LeadPatch) Apply(l *Lead) {
	if p == nil || l == nil {
		return
	}
	setStr(&l.LeadType, p.LeadType)
	setStr(&l.Classification, p.Classification)
	setStr(&l.RequirementType, p.RequirementType)
	setStr(&l.Region, p.Region)
	setStr(&l.Location, p.Location)
	setStr(&l.NextAction, p.NextAction)
	setStr(&l.Notes, p.Notes)
	if p.EstimatedQuantity != nil {
		l.EstimatedQuantity = *p.EstimatedQuantity
	}
}

// Fields returns names of the columns set in the patch
func (p *LeadPatch) Fields() []string {
	res := []string{}
	if p == nil {
		return res
	}
	for _, f := range []struct {
		name string
		set  bool
	}{{"lead_type", p.LeadType != nil}, {"classification", p.Classification != nil},
		{"requirement_type", p.RequirementType != nil}, {"region", p.Region != nil}, {"location", p.Location != nil},
		{"next_action", p.NextAction != nil}, {"estimated_quantity", p.EstimatedQuantity != nil},
		{"notes", p.Notes != nil}} {
		if f.set {
			res = append(res, f.name)
		}
	}
	return res
}

func setStr(to *string, v *string) {
	if v != nil {
		*to = *v
	}
}
