package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/status"
	"github.com/airenas/leadcall/internal/pkg/utils"
)

var (
	// ErrNotFailed is returned for a manual retry of not failed recording
	ErrNotFailed = errors.New("recording is not failed")
	// ErrHeld is returned for a recording still waiting for a phone number
	ErrHeld = errors.New("phone number unresolved")
)

const batchSize = 100

// DB provides recordings for the sweep
type DB interface {
	LoadRecording(ctx context.Context, id string) (*persistence.Recording, error)
	UpdateRecording(ctx context.Context, r *persistence.Recording, prevStatus string) error
	ListRecordings(ctx context.Context, statuses []string, updatedBefore time.Time, limit int) ([]*persistence.Recording, error)
	RetryCandidates(ctx context.Context, maxRetries, limit int) ([]*persistence.Recording, error)
}

// Reconciler resets failed recordings and repairs stuck ones
type Reconciler struct {
	db         DB
	sender     messages.Sender
	maxRetries int
	stuckAfter time.Duration
	now        func() time.Time
}

// NewReconciler creates reconciler
func NewReconciler(db DB, sender messages.Sender, maxRetries int, stuckAfter time.Duration) (*Reconciler, error) {
	if db == nil {
		return nil, fmt.Errorf("no DB")
	}
	if sender == nil {
		return nil, fmt.Errorf("no msg sender")
	}
	if maxRetries < 1 {
		return nil, fmt.Errorf("wrong max retries %d", maxRetries)
	}
	if stuckAfter < time.Minute {
		return nil, fmt.Errorf("stuck duration too short %v", stuckAfter)
	}
	goapp.Log.Info().Int("maxRetries", maxRetries).Dur("stuckAfter", stuckAfter).Msg("reconciler")
	return &Reconciler{db: db, sender: sender, maxRetries: maxRetries, stuckAfter: stuckAfter, now: time.Now}, nil
}

// GetExpired returns IDs of recordings the sweep must look at
func (r *Reconciler) GetExpired(ctx context.Context) ([]string, error) {
	failed, err := r.db.RetryCandidates(ctx, r.maxRetries, batchSize)
	if err != nil {
		return nil, fmt.Errorf("can't get failed: %w", err)
	}
	old := r.now().Add(-r.stuckAfter)
	stuck, err := r.db.ListRecordings(ctx, append(status.InProgressNames(), status.Pending.String()), old, batchSize)
	if err != nil {
		return nil, fmt.Errorf("can't get stuck: %w", err)
	}
	res := make([]string, 0, len(failed)+len(stuck))
	for _, rec := range append(failed, stuck...) {
		res = append(res, rec.ID)
	}
	if len(res) > 0 {
		goapp.Log.Info().Int("failed", len(failed)).Int("stuck", len(stuck)).Msg("found recordings")
	}
	return res, nil
}

// Clean reconciles one recording found by GetExpired
func (r *Reconciler) Clean(ctx context.Context, id string) error {
	rec, err := r.db.LoadRecording(ctx, id)
	if err != nil {
		return fmt.Errorf("can't load %s: %w", id, err)
	}
	st := status.From(rec.Status)
	switch {
	case st == status.Failed:
		err := r.reset(ctx, rec, false)
		if errors.Is(err, ErrHeld) {
			return nil
		}
		return err
	case r.now().Sub(rec.Updated) < r.stuckAfter:
		return nil
	case st.InProgress():
		return r.markStuck(ctx, rec)
	case st == status.Pending:
		return r.requeue(ctx, rec)
	}
	return nil
}

// Retry resets a failed recording on operator request, the retry cap is ignored
func (r *Reconciler) Retry(ctx context.Context, id string) error {
	rec, err := r.db.LoadRecording(ctx, id)
	if err != nil {
		return fmt.Errorf("can't load %s: %w", id, err)
	}
	if status.From(rec.Status) != status.Failed {
		return fmt.Errorf("%s is %s: %w", id, rec.Status, ErrNotFailed)
	}
	return r.reset(ctx, rec, true)
}

func (r *Reconciler) reset(ctx context.Context, rec *persistence.Recording, manual bool) error {
	if rec.PhoneNumber == persistence.UnresolvedPhone {
		return ErrHeld
	}
	switch {
	case rec.Error.String == persistence.HoldError, manual:
		rec.RetryCount = 0
	case rec.RetryCount >= r.maxRetries:
		goapp.Log.Debug().Str("ID", rec.ID).Int("retries", rec.RetryCount).Msg("no retries left")
		return nil
	}
	rec.Status = status.Pending.String()
	rec.Error = utils.ToSQLStr("")
	if err := r.db.UpdateRecording(ctx, rec, status.Failed.String()); err != nil {
		return fmt.Errorf("can't reset %s: %w", rec.ID, err)
	}
	goapp.Log.Info().Str("ID", rec.ID).Int("retries", rec.RetryCount).Bool("manual", manual).Msg("reset to pending")
	return r.enqueue(ctx, rec)
}

func (r *Reconciler) markStuck(ctx context.Context, rec *persistence.Recording) error {
	prev := rec.Status
	rec.Status = status.Failed.String()
	rec.RetryCount++
	rec.Error = utils.ToSQLStr("stuck in " + prev)
	if err := r.db.UpdateRecording(ctx, rec, prev); err != nil {
		return fmt.Errorf("can't mark %s failed: %w", rec.ID, err)
	}
	goapp.Log.Warn().Str("ID", rec.ID).Str("status", prev).Msg("stuck, marked failed")
	return nil
}

func (r *Reconciler) requeue(ctx context.Context, rec *persistence.Recording) error {
	// touch to skip it in the next sweeps
	if err := r.db.UpdateRecording(ctx, rec, rec.Status); err != nil {
		return fmt.Errorf("can't touch %s: %w", rec.ID, err)
	}
	goapp.Log.Warn().Str("ID", rec.ID).Msg("orphaned pending, enqueue")
	return r.enqueue(ctx, rec)
}

func (r *Reconciler) enqueue(ctx context.Context, rec *persistence.Recording) error {
	if err := r.sender.SendMessage(ctx, messages.NewRecordingMessage(rec.ID), messages.ProcessOpts()); err != nil {
		return fmt.Errorf("can't enqueue %s: %w", rec.ID, err)
	}
	return nil
}
