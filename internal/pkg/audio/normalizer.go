package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/utils"
)

// OutExt is an extension of normalized audio
const OutExt = ".mp3"

// Runner runs an external tool and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Result is a normalized audio
type Result struct {
	Data     []byte
	Duration int
}

// Normalizer converts any audio to mono 16kHz 64kbps mp3
type Normalizer struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
	tempDir string
}

// NewNormalizer creates new normalizer
func NewNormalizer(ffmpeg, ffprobe string) (*Normalizer, error) {
	if ffmpeg == "" {
		return nil, fmt.Errorf("no ffmpeg")
	}
	if ffprobe == "" {
		return nil, fmt.Errorf("no ffprobe")
	}
	return &Normalizer{ffmpeg: ffmpeg, ffprobe: ffprobe, runner: &execRunner{}}, nil
}

// Normalize converts the audio and probes its duration.
// Conversion errors are returned, unknown duration is 0
func (n *Normalizer) Normalize(ctx context.Context, data []byte, fileName string) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no audio data")
	}
	defer goapp.Estimate("normalize")()
	dir, err := os.MkdirTemp(n.tempDir, "leadcall-audio-")
	if err != nil {
		return nil, fmt.Errorf("can't create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			goapp.Log.Warn().Err(err).Str("dir", dir).Msg("can't remove temp dir")
		}
	}()
	in := filepath.Join(dir, "in"+strings.ToLower(filepath.Ext(fileName)))
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, fmt.Errorf("can't write input: %w", err)
	}
	out := filepath.Join(dir, "out"+OutExt)
	if _, err := n.runner.Run(ctx, n.ffmpeg, "-y", "-hide_banner", "-loglevel", "error", "-i", in,
		"-vn", "-ac", "1", "-ar", "16000", "-b:a", "64k", out); err != nil {
		return nil, fmt.Errorf("can't convert: %w", err)
	}
	res := &Result{}
	if res.Data, err = os.ReadFile(out); err != nil {
		return nil, fmt.Errorf("can't read output: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("empty output")
	}
	res.Duration = n.duration(ctx, in)
	goapp.Log.Info().Int("in", len(data)).Int("out", len(res.Data)).Int("duration", res.Duration).Msg("normalized")
	return res, nil
}

func (n *Normalizer) duration(ctx context.Context, file string) int {
	out, err := n.runner.Run(ctx, n.ffprobe, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", file)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't probe duration")
		return 0
	}
	return parseDuration(string(out))
}

func parseDuration(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		goapp.Log.Warn().Str("value", goapp.Sanitize(s)).Msg("can't parse duration")
		return 0
	}
	return int(math.Round(f))
}

type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, utils.Limit(strings.TrimSpace(stderr.String()), 300))
	}
	return stdout.Bytes(), nil
}
