package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/audio"
	"github.com/airenas/leadcall/internal/pkg/inform"
	"github.com/airenas/leadcall/internal/pkg/insight"
	"github.com/airenas/leadcall/internal/pkg/lead"
	"github.com/airenas/leadcall/internal/pkg/messages"
	"github.com/airenas/leadcall/internal/pkg/persistence"
	"github.com/airenas/leadcall/internal/pkg/status"
	"github.com/airenas/leadcall/internal/pkg/storage"
	"github.com/airenas/leadcall/internal/pkg/transcriber"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/airenas/leadcall/internal/pkg/utils/handler"
	"github.com/vgarvardt/gue/v5"
)

// DB provides persistence functionality
type DB interface {
	LoadRecording(ctx context.Context, id string) (*persistence.Recording, error)
	UpdateRecording(ctx context.Context, r *persistence.Recording, prevStatus string) error
	LoadLead(ctx context.Context, id string) (*persistence.Lead, error)
	UpdateLead(ctx context.Context, id string, p *persistence.LeadPatch) error
}

// Downloader gets a file from the chat platform
type Downloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// AudioNormalizer converts audio to mono 16kHz mp3
type AudioNormalizer interface {
	Normalize(ctx context.Context, data []byte, fileName string) (*audio.Result, error)
}

// Uploader saves audio to durable storage
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (*storage.StoredFile, error)
}

// Transcriber makes a transcript
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName string) (*transcriber.Result, error)
}

// Extractor gets insights from a transcript, never fails
type Extractor interface {
	Insights(ctx context.Context, transcript string) insight.CallInsights
	LeadDetails(ctx context.Context, transcript, leadName string) insight.LeadDetails
}

// Notifier queues chat messages, never fails
type Notifier interface {
	Send(ctx context.Context, id string, chatID int64, text string)
	Alert(ctx context.Context, id string, text string)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	DB          DB
	Downloader  Downloader
	Audio       AudioNormalizer
	Uploader    Uploader
	Transcriber Transcriber
	Extractor   Extractor
	Notifier    Notifier
	Testing     bool
}

// StartWorkerService starts the event queue listener service to listen for events
// returns channel for tracking if all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Int("workers", data.WorkerCount).Msg("Starting listen for messages")
	if data.Testing {
		goapp.Log.Warn().Msg("SERVICE IN TEST MODE")
	}

	wm := gue.WorkMap{
		messages.TypeProcess: handler.Create(data, handleRecording, handler.DefaultOpts[messages.RecordingMessage]().
			WithTimeout(time.Minute*30).WithBackoff(handler.DefaultBackoffOrTest(data.Testing))),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.Work),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("leadcall-worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}

// pipeline drives one recording through the stages
type pipeline struct {
	data     *ServiceData
	rec      *persistence.Recording
	leadName string
}

func handleRecording(ctx context.Context, m *messages.RecordingMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Msg("handling recording")
	rec, err := data.DB.LoadRecording(ctx, m.ID)
	if errors.Is(err, persistence.ErrNotFound) {
		goapp.Log.Warn().Str("ID", m.ID).Msg("no recording, drop")
		return nil
	}
	if err != nil {
		return fmt.Errorf("can't load recording: %w", err)
	}
	if status.From(rec.Status) != status.Pending {
		goapp.Log.Info().Str("ID", m.ID).Str("status", rec.Status).Msg("not pending, skip")
		return nil
	}
	p := &pipeline{data: data, rec: rec}
	if rec.PhoneNumber == persistence.UnresolvedPhone {
		return p.hold(ctx)
	}
	if err := p.run(ctx); err != nil {
		if errors.Is(err, persistence.ErrChanged) {
			goapp.Log.Warn().Err(err).Str("ID", m.ID).Msg("recording taken by someone else, stop")
			return nil
		}
		goapp.Log.Error().Err(err).Str("ID", m.ID).Msg("pipeline failed")
		return p.fail(ctx, err)
	}
	goapp.Log.Info().Str("ID", m.ID).Msg("recording completed")
	return nil
}

func (p *pipeline) run(ctx context.Context) error {
	rec := p.rec
	if err := p.enter(ctx, status.Downloading); err != nil {
		return err
	}
	raw, err := p.data.Downloader.Download(ctx, rec.TelegramFileID)
	if err != nil {
		return utils.NewErrStage(status.Downloading, err)
	}
	if rec.FileSizeBytes == 0 {
		rec.FileSizeBytes = int64(len(raw))
	}

	if err := p.enter(ctx, status.Converting); err != nil {
		return err
	}
	converted, err := p.data.Audio.Normalize(ctx, raw, rec.OriginalFilename)
	if err != nil {
		return utils.NewErrStage(status.Converting, err)
	}
	rec.DurationSeconds = converted.Duration
	if err := p.save(ctx); err != nil {
		return err
	}
	mp3Name := utils.ChangeExt(rec.OriginalFilename, ".mp3")

	if err := p.enter(ctx, status.Uploading); err != nil {
		return err
	}
	p.leadName = p.resolveLeadName(ctx)
	stored, err := p.data.Uploader.Upload(ctx,
		storage.ObjectName(rec.ID, rec.PhoneNumber, p.leadName, rec.OriginalFilename, ".mp3"), converted.Data)
	if err != nil {
		return utils.NewErrStage(status.Uploading, err)
	}
	rec.AudioFileID, rec.AudioURL = utils.ToSQLStr(stored.ID), utils.ToSQLStr(stored.URL)
	if err := p.save(ctx); err != nil {
		return err
	}

	if err := p.enter(ctx, status.Transcribing); err != nil {
		return err
	}
	tr, err := p.data.Transcriber.Transcribe(ctx, converted.Data, mp3Name)
	if err != nil {
		return utils.NewErrStage(status.Transcribing, err)
	}
	rec.TranscriptionText = utils.ToSQLStr(tr.Text)
	rec.TranscriptionLanguage = utils.ToSQLStr(tr.Language)
	rec.TranscriptionConfidence = sql.NullFloat64{Float64: tr.Confidence, Valid: tr.Text != transcriber.Unavailable}
	if err := p.save(ctx); err != nil {
		return err
	}
	transcript := tr.Text
	if transcript == transcriber.Unavailable {
		transcript = ""
	}

	if err := p.enter(ctx, status.Analyzing); err != nil {
		return err
	}
	ins := p.data.Extractor.Insights(ctx, transcript)
	rec.AISummary = utils.ToSQLStr(ins.Summary)
	rec.AIScoreImpact = utils.ToSQLFloat(ins.ScoreImpact)
	if rec.AIInsights, err = json.Marshal(ins); err != nil {
		return fmt.Errorf("can't marshal insights: %w", err)
	}
	if err := p.save(ctx); err != nil {
		return err
	}
	res := &inform.Result{Recording: rec, LeadName: p.leadName, Insights: ins}
	if rec.LeadID.Valid {
		res.Details, res.Filled = p.mergeLead(ctx, transcript)
	}

	rec.Error = sql.NullString{}
	rec.Processed = utils.ToSQLTime(time.Now())
	if err := p.enter(ctx, status.Completed); err != nil {
		return err
	}
	p.data.Notifier.Send(ctx, rec.ID, rec.TelegramChatID, inform.ResultText(res))
	return nil
}

func (p *pipeline) resolveLeadName(ctx context.Context) string {
	if !p.rec.LeadID.Valid {
		return ""
	}
	l, err := p.data.DB.LoadLead(ctx, p.rec.LeadID.String)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("ID", p.rec.ID).Str("lead", p.rec.LeadID.String).Msg("can't load lead")
		return ""
	}
	return l.Name
}

// mergeLead fills empty lead fields, failures are only logged
func (p *pipeline) mergeLead(ctx context.Context, transcript string) (*insight.LeadDetails, []string) {
	details := p.data.Extractor.LeadDetails(ctx, transcript, p.leadName)
	id := p.rec.LeadID.String
	current, err := p.data.DB.LoadLead(ctx, id)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("ID", p.rec.ID).Str("lead", id).Msg("can't load lead for merge")
		return &details, nil
	}
	patch := lead.MergeGaps(current, details)
	if patch.Empty() {
		return &details, nil
	}
	if err := p.data.DB.UpdateLead(ctx, id, patch); err != nil {
		goapp.Log.Warn().Err(err).Str("ID", p.rec.ID).Str("lead", id).Msg("can't update lead")
		return &details, nil
	}
	goapp.Log.Info().Str("ID", p.rec.ID).Str("lead", id).Strs("fields", patch.Fields()).Msg("lead updated")
	return &details, patch.Fields()
}

// enter moves the recording to the next status and saves it
func (p *pipeline) enter(ctx context.Context, to status.Status) error {
	prev := p.rec.Status
	if !status.CanTransit(status.From(prev), to) {
		return fmt.Errorf("wrong transition %s -> %s", prev, to)
	}
	p.rec.Status = to.String()
	if err := p.data.DB.UpdateRecording(ctx, p.rec, prev); err != nil {
		p.rec.Status = prev
		return fmt.Errorf("can't set status %s: %w", to, err)
	}
	goapp.Log.Info().Str("ID", p.rec.ID).Str("stage", p.rec.Status).Msg("stage")
	return nil
}

// save persists stage output keeping the status
func (p *pipeline) save(ctx context.Context) error {
	if err := p.data.DB.UpdateRecording(ctx, p.rec, p.rec.Status); err != nil {
		return fmt.Errorf("can't save %s output: %w", p.rec.Status, err)
	}
	return nil
}

func (p *pipeline) hold(ctx context.Context) error {
	goapp.Log.Warn().Str("ID", p.rec.ID).Msg("phone unresolved, hold")
	if err := p.toFailed(ctx, persistence.HoldError); err != nil {
		return err
	}
	p.data.Notifier.Send(ctx, p.rec.ID, p.rec.TelegramChatID, inform.HoldText(p.rec))
	return nil
}

func (p *pipeline) fail(ctx context.Context, cause error) error {
	// the job context may be expired already
	fctx, cf := context.WithTimeout(context.WithoutCancel(ctx), time.Second*30)
	defer cf()
	if err := p.toFailed(fctx, utils.Limit(cause.Error(), 1000)); err != nil {
		return err
	}
	p.data.Notifier.Send(fctx, p.rec.ID, p.rec.TelegramChatID, inform.FailureText(p.rec, cause))
	p.data.Notifier.Alert(fctx, p.rec.ID, inform.AlertText(p.rec, cause))
	return nil
}

func (p *pipeline) toFailed(ctx context.Context, errStr string) error {
	prev := p.rec.Status
	if !status.CanTransit(status.From(prev), status.Failed) {
		return fmt.Errorf("wrong transition %s -> %s", prev, status.Failed)
	}
	p.rec.Status = status.Failed.String()
	p.rec.RetryCount++
	p.rec.Error = utils.ToSQLStr(errStr)
	p.rec.Processed = sql.NullTime{}
	if err := p.data.DB.UpdateRecording(ctx, p.rec, prev); err != nil {
		return fmt.Errorf("can't mark failed: %w", err)
	}
	return nil
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Downloader == nil {
		return fmt.Errorf("no Downloader")
	}
	if data.Audio == nil {
		return fmt.Errorf("no audio normalizer")
	}
	if data.Uploader == nil {
		return fmt.Errorf("no Uploader")
	}
	if data.Transcriber == nil {
		return fmt.Errorf("no Transcriber")
	}
	if data.Extractor == nil {
		return fmt.Errorf("no Extractor")
	}
	if data.Notifier == nil {
		return fmt.Errorf("no Notifier")
	}
	return nil
}
