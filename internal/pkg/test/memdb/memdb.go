package memdb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/utils"
)

var nonDigit = regexp.MustCompile(`\D`)

// DB is an in memory store for tests
type DB struct {
	lock       sync.Mutex
	Recordings map[string]*persistence.Recording
	Leads      map[string]*persistence.Lead
	// StatusLog keeps every status written per recording
	StatusLog map[string][]string
}

// New creates empty DB
func New() *DB {
	return &DB{Recordings: map[string]*persistence.Recording{}, Leads: map[string]*persistence.Lead{},
		StatusLog: map[string][]string{}}
}

func copyRec(r *persistence.Recording) *persistence.Recording {
	res := *r
	return &res
}

func copyLead(l *persistence.Lead) *persistence.Lead {
	res := *l
	return &res
}

// InsertRecording adds a recording and an optional new lead, nothing is added on a duplicate file
func (db *DB) InsertRecording(ctx context.Context, r *persistence.Recording, newLead *persistence.Lead) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	for _, o := range db.Recordings {
		if o.TelegramFileID == r.TelegramFileID {
			return persistence.ErrDuplicate
		}
	}
	if newLead != nil {
		db.Leads[newLead.ID] = copyLead(newLead)
	}
	db.Recordings[r.ID] = copyRec(r)
	db.StatusLog[r.ID] = append(db.StatusLog[r.ID], r.Status)
	return nil
}

// LoadRecording returns a recording
func (db *DB) LoadRecording(ctx context.Context, id string) (*persistence.Recording, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	r, ok := db.Recordings[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return copyRec(r), nil
}

// RecordingByFileID finds a recording by file
func (db *DB) RecordingByFileID(ctx context.Context, fileID string) (*persistence.Recording, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	for _, r := range db.Recordings {
		if r.TelegramFileID == fileID {
			return copyRec(r), nil
		}
	}
	return nil, nil
}

// LatestCompletedUnlinked finds the newest completed recording without a lead
func (db *DB) LatestCompletedUnlinked(ctx context.Context, chatID int64) (*persistence.Recording, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	var res *persistence.Recording
	for _, r := range db.Recordings {
		if r.TelegramChatID == chatID && r.Status == "completed" && !r.LeadID.Valid &&
			(res == nil || r.Created.After(res.Created)) {
			res = r
		}
	}
	if res == nil {
		return nil, nil
	}
	return copyRec(res), nil
}

// UpdateRecording saves a recording if status was not changed
func (db *DB) UpdateRecording(ctx context.Context, r *persistence.Recording, prevStatus string) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	o, ok := db.Recordings[r.ID]
	if !ok || o.Status != prevStatus {
		return fmt.Errorf("can't update %s: %w", r.ID, persistence.ErrChanged)
	}
	n := copyRec(r)
	n.LeadID, n.PhoneNumber = o.LeadID, o.PhoneNumber
	n.Updated = time.Now()
	db.Recordings[r.ID] = n
	db.StatusLog[r.ID] = append(db.StatusLog[r.ID], r.Status)
	return nil
}

// LinkNewLead adds the lead and links it, nothing is added if the recording has a lead
func (db *DB) LinkNewLead(ctx context.Context, id string, l *persistence.Lead) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	r, ok := db.Recordings[id]
	if !ok || r.LeadID.Valid {
		return fmt.Errorf("can't link %s: %w", id, persistence.ErrChanged)
	}
	db.Leads[l.ID] = copyLead(l)
	r.LeadID = utils.ToSQLStr(l.ID)
	return nil
}

// ListRecordings filters by status and update time
func (db *DB) ListRecordings(ctx context.Context, statuses []string, updatedBefore time.Time, limit int) ([]*persistence.Recording, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	st := map[string]bool{}
	for _, s := range statuses {
		st[s] = true
	}
	res := []*persistence.Recording{}
	for _, r := range db.Recordings {
		if st[r.Status] && r.Updated.Before(updatedBefore) {
			res = append(res, copyRec(r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Updated.Before(res[j].Updated) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// RetryCandidates returns failed recordings with a phone and retries left or on hold
func (db *DB) RetryCandidates(ctx context.Context, maxRetries, limit int) ([]*persistence.Recording, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	res := []*persistence.Recording{}
	for _, r := range db.Recordings {
		if r.Status == "failed" && r.PhoneNumber != persistence.UnresolvedPhone &&
			(r.RetryCount < maxRetries || r.Error.String == persistence.HoldError) {
			res = append(res, copyRec(r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Updated.Before(res[j].Updated) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// RecordingsSince returns recordings created after since
func (db *DB) RecordingsSince(ctx context.Context, since time.Time) ([]*persistence.RecordingView, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	res := []*persistence.RecordingView{}
	for _, r := range db.Recordings {
		if r.Created.Before(since) {
			continue
		}
		v := &persistence.RecordingView{Recording: *r}
		if l, ok := db.Leads[r.LeadID.String]; ok && r.LeadID.Valid {
			v.LeadName = l.Name
		}
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Created.After(res[j].Created) })
	return res, nil
}

// FindLeadByPhone finds the most recently updated lead by contact digits
func (db *DB) FindLeadByPhone(ctx context.Context, phone string) (*persistence.Lead, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	local := phone
	if len(phone) > 10 {
		local = phone[len(phone)-10:]
	}
	var res *persistence.Lead
	for _, l := range db.Leads {
		d := nonDigit.ReplaceAllString(l.ContactNumber, "")
		if d != phone && d != local {
			continue
		}
		if res == nil || l.Updated.After(res.Updated) || (l.Updated.Equal(res.Updated) && l.Created.After(res.Created)) {
			res = l
		}
	}
	if res == nil {
		return nil, nil
	}
	return copyLead(res), nil
}

// LoadLead returns lead
func (db *DB) LoadLead(ctx context.Context, id string) (*persistence.Lead, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	l, ok := db.Leads[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return copyLead(l), nil
}

// InsertLead adds lead
func (db *DB) InsertLead(ctx context.Context, l *persistence.Lead) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.Leads[l.ID] = copyLead(l)
	return nil
}

// UpdateLead applies patch
func (db *DB) UpdateLead(ctx context.Context, id string, p *persistence.LeadPatch) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	l, ok := db.Leads[id]
	if !ok {
		return persistence.ErrNotFound
	}
	p.Apply(l)
	l.Updated = time.Now()
	return nil
}

// Live always works
func (db *DB) Live(ctx context.Context) error {
	return nil
}

// LeadsByName returns leads with the name
func (db *DB) LeadsByName(name string) []*persistence.Lead {
	db.lock.Lock()
	defer db.lock.Unlock()
	res := []*persistence.Lead{}
	for _, l := range db.Leads {
		if l.Name == name {
			res = append(res, copyLead(l))
		}
	}
	return res
}
