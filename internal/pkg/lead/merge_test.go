package lead

import (
	"math/rand"
	"testing"
	"testing/quick"
	"time"

	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeGaps(t *testing.T) {
	in := insight.LeadDetails{LeadType: insight.LeadTypeDealer, Classification: insight.ClassChannelPartner,
		RequirementType: insight.ReqHollowBlocks, Region: "Avadi", Location: " near bus stand ", NextAction: "Send quote",
		EstimatedQuantity: 500, Notes: "urgent"}
	cur := &persistence.Lead{LeadType: insight.LeadTypeOther, Classification: insight.ClassDirectCustomer,
		Region: "Chennai", EstimatedQuantity: 100}

	got := MergeGaps(cur, in)

	require.False(t, got.Empty())
	assert.Equal(t, insight.LeadTypeDealer, *got.LeadType)
	assert.Equal(t, insight.ClassChannelPartner, *got.Classification)
	assert.Equal(t, insight.ReqHollowBlocks, *got.RequirementType)
	assert.Nil(t, got.Region)
	assert.Equal(t, "near bus stand", *got.Location)
	assert.Equal(t, "Send quote", *got.NextAction)
	assert.Nil(t, got.EstimatedQuantity)
	assert.Equal(t, "urgent", *got.Notes)
}

func TestMergeGaps_DefaultsNotWritten(t *testing.T) {
	got := MergeGaps(&persistence.Lead{}, insight.DefaultLeadDetails())
	assert.True(t, got.Empty())
}

func TestMergeGaps_Nil(t *testing.T) {
	assert.True(t, MergeGaps(nil, insight.LeadDetails{Region: "a"}).Empty())
}

func TestMergeGaps_HumanValueKept(t *testing.T) {
	cur := &persistence.Lead{LeadType: insight.LeadTypeBuilder, Classification: insight.ClassInfluencer,
		RequirementType: insight.ReqSolidBlocks, Region: "a", Location: "b", NextAction: "c", EstimatedQuantity: 1, Notes: "d"}
	got := MergeGaps(cur, insight.LeadDetails{LeadType: insight.LeadTypeDealer, Classification: insight.ClassChannelPartner,
		RequirementType: insight.ReqHollowBlocks, Region: "x", Location: "y", NextAction: "z", EstimatedQuantity: 2, Notes: "w"})
	assert.True(t, got.Empty())
}

var (
	leadTypes = append([]string{"", " ", "other"}, insight.LeadTypes...)
	classes   = append([]string{""}, insight.Classifications...)
	reqs      = append([]string{""}, insight.RequirementTypes...)
	texts     = []string{"", "", " ", "Avadi", "Chennai", "call back"}
	nums      = []int{0, 0, -1, 1, 500}
)

func pick[T any](r *rand.Rand, from []T) T {
	return from[r.Intn(len(from))]
}

func randomLead(r *rand.Rand) *persistence.Lead {
	return &persistence.Lead{ID: "1", Name: "n", LeadType: pick(r, leadTypes), Classification: pick(r, classes),
		RequirementType: pick(r, reqs), Region: pick(r, texts), Location: pick(r, texts), NextAction: pick(r, texts),
		EstimatedQuantity: pick(r, nums), Notes: pick(r, texts)}
}

func randomDetails(r *rand.Rand) insight.LeadDetails {
	return insight.LeadDetails{LeadType: pick(r, leadTypes), Classification: pick(r, classes),
		RequirementType: pick(r, reqs), Region: pick(r, texts), Location: pick(r, texts), NextAction: pick(r, texts),
		EstimatedQuantity: pick(r, nums), Notes: pick(r, texts)}
}

func TestMergeGaps_Idempotent(t *testing.T) {
	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		cur, in := randomLead(r), randomDetails(r)
		once := *cur
		MergeGaps(&once, in).Apply(&once)
		twice := once
		MergeGaps(&twice, in).Apply(&twice)
		return once == twice && MergeGaps(&once, in).Empty()
	}
	assert.Nil(t, quick.Check(f, &quick.Config{MaxCount: 2000}))
}

func TestMergeGaps_NonDestructive(t *testing.T) {
	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		cur, in := randomLead(r), randomDetails(r)
		p := MergeGaps(cur, in)
		ok := (p.LeadType == nil || isEmpty(cur.LeadType, insight.LeadTypeOther)) &&
			(p.Classification == nil || isEmpty(cur.Classification, insight.ClassDirectCustomer)) &&
			(p.RequirementType == nil || isEmpty(cur.RequirementType, "")) &&
			(p.Region == nil || isEmpty(cur.Region, "")) &&
			(p.Location == nil || isEmpty(cur.Location, "")) &&
			(p.NextAction == nil || isEmpty(cur.NextAction, "")) &&
			(p.Notes == nil || isEmpty(cur.Notes, "")) &&
			(p.EstimatedQuantity == nil || cur.EstimatedQuantity <= 0)
		return ok
	}
	assert.Nil(t, quick.Check(f, &quick.Config{MaxCount: 2000}))
}

func TestNewAutoLead(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	got := NewAutoLead(" Robin Avadi ", "919876543210", now)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Robin Avadi", got.Name)
	assert.Equal(t, "919876543210", got.ContactNumber)
	assert.Equal(t, "Telegram", got.Source)
	assert.Equal(t, "new", got.Status)
	assert.Equal(t, insight.LeadTypeOther, got.LeadType)
	assert.Equal(t, insight.ClassDirectCustomer, got.Classification)
	assert.Equal(t, now, got.Created)
	assert.NotEqual(t, got.ID, NewAutoLead("a", "b", now).ID)
}

func TestNewLeadWithDetails(t *testing.T) {
	got := NewLeadWithDetails("Kumar", "", insight.LeadDetails{LeadType: insight.LeadTypeContractor,
		Classification: insight.ClassDirectCustomer, Region: "Avadi"}, time.Now())
	assert.Equal(t, "Kumar", got.Name)
	assert.Equal(t, insight.LeadTypeContractor, got.LeadType)
	assert.Equal(t, insight.ClassDirectCustomer, got.Classification)
	assert.Equal(t, "Avadi", got.Region)
}
