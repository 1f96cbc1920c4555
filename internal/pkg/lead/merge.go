package lead

import (
	"strings"
	"time"

	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/google/uuid"
)

const (
	// SourceTelegram is a source of leads created from chat recordings
	SourceTelegram = "Telegram"
	// StatusNew is a status of a new lead
	StatusNew = "new"
)

// MergeGaps returns the update filling only the empty or default lead fields.
// Incoming empty or default values are never written
func MergeGaps(current *persistence.Lead, in insight.LeadDetails) *persistence.LeadPatch {
	res := &persistence.LeadPatch{}
	if current == nil {
		return res
	}
	res.LeadType = gap(current.LeadType, in.LeadType, insight.LeadTypeOther)
	res.Classification = gap(current.Classification, in.Classification, insight.ClassDirectCustomer)
	res.RequirementType = gap(current.RequirementType, in.RequirementType, "")
	res.Region = gap(current.Region, in.Region, "")
	res.Location = gap(current.Location, in.Location, "")
	res.NextAction = gap(current.NextAction, in.NextAction, "")
	res.Notes = gap(current.Notes, in.Notes, "")
	if current.EstimatedQuantity <= 0 && in.EstimatedQuantity > 0 {
		v := in.EstimatedQuantity
		res.EstimatedQuantity = &v
	}
	return res
}

func gap(current, in, def string) *string {
	if !isEmpty(current, def) || isEmpty(in, def) {
		return nil
	}
	v := strings.TrimSpace(in)
	return &v
}

func isEmpty(v, def string) bool {
	v = strings.TrimSpace(v)
	return v == "" || (def != "" && strings.EqualFold(v, def))
}

// NewAutoLead creates a lead for a customer seen first time in a recording
func NewAutoLead(name, phone string, now time.Time) *persistence.Lead {
	return &persistence.Lead{ID: uuid.NewString(), Name: strings.TrimSpace(name), ContactNumber: phone,
		Source: SourceTelegram, Status: StatusNew, LeadType: insight.LeadTypeOther,
		Classification: insight.ClassDirectCustomer, Created: now, Updated: now}
}

// NewLeadWithDetails creates a lead prefilled with the known details
func NewLeadWithDetails(name, phone string, in insight.LeadDetails, now time.Time) *persistence.Lead {
	res := NewAutoLead(name, phone, now)
	MergeGaps(res, in).Apply(res)
	return res
}
