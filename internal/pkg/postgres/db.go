package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const recordingCols = `r.id, r.lead_id, r.phone_number, r.telegram_file_id, r.telegram_message_id, r.telegram_chat_id,
	r.telegram_user_id, r.original_filename, r.file_size_bytes, r.duration_seconds, r.processing_status, r.retry_count,
	r.error_message, r.mp3_gdrive_file_id, r.mp3_gdrive_url, r.transcription_text, r.transcription_language,
	r.transcription_confidence, r.ai_summary, r.ai_insights, r.ai_score_impact, r.created_at, r.updated_at, r.processed_at`

const leadCols = `id, name, contact_number, source, status, lead_type, classification, requirement_type, region,
	location, next_action, estimated_quantity, notes, created_at, updated_at`

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	return &DB{pool: pool}, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// InsertRecording inserts a new recording and, if not nil, its new lead in one transaction.
// Returns persistence.ErrDuplicate if the file is already registered, the lead is not saved then
func (db *DB) InsertRecording(ctx context.Context, r *persistence.Recording, newLead *persistence.Lead) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if newLead != nil {
			if err := insertLead(ctx, tx, newLead); err != nil {
				return err
			}
		}
		return insertRecording(ctx, tx, r)
	})
}

func insertRecording(ctx context.Context, q execer, r *persistence.Recording) error {
	_, err := q.Exec(ctx, `INSERT INTO call_recordings(id, lead_id, phone_number, telegram_file_id,
	telegram_message_id, telegram_chat_id, telegram_user_id, original_filename, file_size_bytes, duration_seconds,
	processing_status, retry_count, created_at, updated_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`, r.ID, r.LeadID, r.PhoneNumber,
		r.TelegramFileID, r.TelegramMessageID, r.TelegramChatID, r.TelegramUserID, r.OriginalFilename,
		r.FileSizeBytes, r.DurationSeconds, r.Status, r.RetryCount, r.Created, r.Updated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("can't insert recording: %w", err)
	}
	return nil
}

func (db *DB) inTx(ctx context.Context, f func(pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't start tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := f(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit: %w", err)
	}
	return nil
}

// LoadRecording loads recording by ID
func (db *DB) LoadRecording(ctx context.Context, id string) (*persistence.Recording, error) {
	res, err := scanRecording(db.pool.QueryRow(ctx, `SELECT `+recordingCols+` FROM call_recordings r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("can't load recording: %w", err)
	}
	return res, nil
}

// RecordingByFileID returns a recording of the file or nil
func (db *DB) RecordingByFileID(ctx context.Context, fileID string) (*persistence.Recording, error) {
	res, err := scanRecording(db.pool.QueryRow(ctx, `SELECT `+recordingCols+` FROM call_recordings r
		WHERE r.telegram_file_id = $1`, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load recording: %w", err)
	}
	return res, nil
}

// LatestCompletedUnlinked returns the newest completed recording of the chat without a lead, or nil
func (db *DB) LatestCompletedUnlinked(ctx context.Context, chatID int64) (*persistence.Recording, error) {
	res, err := scanRecording(db.pool.QueryRow(ctx, `SELECT `+recordingCols+` FROM call_recordings r
		WHERE r.telegram_chat_id = $1 AND r.processing_status = 'completed' AND r.lead_id IS NULL
		ORDER BY r.created_at DESC LIMIT 1`, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load recording: %w", err)
	}
	return res, nil
}

// UpdateRecording saves the processing fields if the status in DB is still prevStatus
func (db *DB) UpdateRecording(ctx context.Context, r *persistence.Recording, prevStatus string) error {
	r.Updated = time.Now()
	res, err := db.pool.Exec(ctx, `UPDATE call_recordings SET
	duration_seconds = $3,
	processing_status = $4,
	retry_count = $5,
	error_message = $6,
	mp3_gdrive_file_id = $7,
	mp3_gdrive_url = $8,
	transcription_text = $9,
	transcription_language = $10,
	transcription_confidence = $11,
	ai_summary = $12,
	ai_insights = $13,
	ai_score_impact = $14,
	processed_at = $15,
	updated_at = $16
	WHERE id = $1 AND processing_status = $2`, r.ID, prevStatus, r.DurationSeconds, r.Status, r.RetryCount,
		r.Error, r.AudioFileID, r.AudioURL, r.TranscriptionText, r.TranscriptionLanguage,
		r.TranscriptionConfidence, r.AISummary, r.AIInsights, r.AIScoreImpact, r.Processed, r.Updated)
	if err != nil {
		return fmt.Errorf("can't update recording: %w", err)
	}
	if res.RowsAffected() != 1 {
		return fmt.Errorf("can't update recording %s from %s: %w", r.ID, prevStatus, persistence.ErrChanged)
	}
	return nil
}

// LinkNewLead inserts the lead and links it to a recording without one in one transaction.
// Returns persistence.ErrChanged if the recording got a lead meanwhile, the lead is not saved then
func (db *DB) LinkNewLead(ctx context.Context, id string, l *persistence.Lead) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertLead(ctx, tx, l); err != nil {
			return err
		}
		res, err := tx.Exec(ctx, `UPDATE call_recordings SET lead_id = $2, updated_at = $3
		WHERE id = $1 AND lead_id IS NULL`, id, l.ID, time.Now())
		if err != nil {
			return fmt.Errorf("can't link lead: %w", err)
		}
		if res.RowsAffected() != 1 {
			return fmt.Errorf("can't link lead to %s: %w", id, persistence.ErrChanged)
		}
		return nil
	})
}

// ListRecordings returns recordings with the statuses not updated since updatedBefore
func (db *DB) ListRecordings(ctx context.Context, statuses []string, updatedBefore time.Time, limit int) ([]*persistence.Recording, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+recordingCols+` FROM call_recordings r
		WHERE r.processing_status = ANY($1) AND r.updated_at < $2
		ORDER BY r.updated_at LIMIT $3`, statuses, updatedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("can't select recordings: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Recording{}
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("can't retrieve recording: %w", err)
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// RetryCandidates returns failed recordings the sweep may reset: with a phone number and
// either retries left or the hold error
func (db *DB) RetryCandidates(ctx context.Context, maxRetries, limit int) ([]*persistence.Recording, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+recordingCols+` FROM call_recordings r
		WHERE r.processing_status = 'failed' AND r.phone_number <> $1
		AND (r.retry_count < $2 OR r.error_message = $3)
		ORDER BY r.updated_at LIMIT $4`, persistence.UnresolvedPhone, maxRetries, persistence.HoldError, limit)
	if err != nil {
		return nil, fmt.Errorf("can't select recordings: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Recording{}
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("can't retrieve recording: %w", err)
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// RecordingsSince returns recordings created after since with lead names, newest first
func (db *DB) RecordingsSince(ctx context.Context, since time.Time) ([]*persistence.RecordingView, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+recordingCols+`, COALESCE(l.name, '') FROM call_recordings r
		LEFT JOIN leads l ON l.id = r.lead_id
		WHERE r.created_at >= $1 ORDER BY r.created_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("can't select recordings: %w", err)
	}
	defer rows.Close()
	res := []*persistence.RecordingView{}
	for rows.Next() {
		var v persistence.RecordingView
		if err := rows.Scan(append(recordingFields(&v.Recording), &v.LeadName)...); err != nil {
			return nil, fmt.Errorf("can't retrieve recording: %w", err)
		}
		res = append(res, &v)
	}
	return res, rows.Err()
}

// FindLeadByPhone returns the most recently updated lead with the phone, or nil.
// Contact numbers are compared by digits with or without the country code
func (db *DB) FindLeadByPhone(ctx context.Context, phone string) (*persistence.Lead, error) {
	local := phone
	if len(phone) > 10 {
		local = phone[len(phone)-10:]
	}
	res, err := scanLead(db.pool.QueryRow(ctx, `SELECT `+leadCols+` FROM leads
		WHERE regexp_replace(contact_number, '\D', '', 'g') IN ($1, $2)
		ORDER BY updated_at DESC, created_at DESC LIMIT 1`, phone, local))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't find lead: %w", err)
	}
	return res, nil
}

// LoadLead loads lead by ID
func (db *DB) LoadLead(ctx context.Context, id string) (*persistence.Lead, error) {
	res, err := scanLead(db.pool.QueryRow(ctx, `SELECT `+leadCols+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("can't load lead: %w", err)
	}
	return res, nil
}

func insertLead(ctx context.Context, q execer, l *persistence.Lead) error {
	_, err := q.Exec(ctx, `INSERT INTO leads(`+leadCols+`)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, l.ID, l.Name, l.ContactNumber,
		l.Source, l.Status, l.LeadType, l.Classification, l.RequirementType, l.Region, l.Location, l.NextAction,
		l.EstimatedQuantity, l.Notes, l.Created, l.Updated)
	if err != nil {
		return fmt.Errorf("can't insert lead: %w", err)
	}
	return nil
}

// UpdateLead writes only the patch fields
func (db *DB) UpdateLead(ctx context.Context, id string, p *persistence.LeadPatch) error {
	if p.Empty() {
		return nil
	}
	sql, args := leadUpdate(id, p, time.Now())
	res, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("can't update lead: %w", err)
	}
	if res.RowsAffected() != 1 {
		return fmt.Errorf("can't update lead %s: %w", id, persistence.ErrNotFound)
	}
	return nil
}

func leadUpdate(id string, p *persistence.LeadPatch, now time.Time) (string, []any) {
	sets, args := []string{}, []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	for _, f := range []struct {
		col string
		v   *string
	}{{"lead_type", p.LeadType}, {"classification", p.Classification}, {"requirement_type", p.RequirementType},
		{"region", p.Region}, {"location", p.Location}, {"next_action", p.NextAction}, {"notes", p.Notes}} {
		if f.v != nil {
			add(f.col, *f.v)
		}
	}
	if p.EstimatedQuantity != nil {
		add("estimated_quantity", *p.EstimatedQuantity)
	}
	add("updated_at", now)
	return "UPDATE leads SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'gue_jobs')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}

func recordingFields(r *persistence.Recording) []any {
	return []any{&r.ID, &r.LeadID, &r.PhoneNumber, &r.TelegramFileID, &r.TelegramMessageID, &r.TelegramChatID,
		&r.TelegramUserID, &r.OriginalFilename, &r.FileSizeBytes, &r.DurationSeconds, &r.Status, &r.RetryCount,
		&r.Error, &r.AudioFileID, &r.AudioURL, &r.TranscriptionText, &r.TranscriptionLanguage,
		&r.TranscriptionConfidence, &r.AISummary, &r.AIInsights, &r.AIScoreImpact, &r.Created, &r.Updated, &r.Processed}
}

func scanRecording(row pgx.Row) (*persistence.Recording, error) {
	var res persistence.Recording
	if err := row.Scan(recordingFields(&res)...); err != nil {
		return nil, err
	}
	return &res, nil
}

func scanLead(row pgx.Row) (*persistence.Lead, error) {
	var res persistence.Lead
	if err := row.Scan(&res.ID, &res.Name, &res.ContactNumber, &res.Source, &res.Status, &res.LeadType,
		&res.Classification, &res.RequirementType, &res.Region, &res.Location, &res.NextAction,
		&res.EstimatedQuantity, &res.Notes, &res.Created, &res.Updated); err != nil {
		return nil, err
	}
	return &res, nil
}
