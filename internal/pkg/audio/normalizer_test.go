package audio

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/airenas/leadcall/internal/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	convertErr error
	out        []byte
	probe      string
	probeErr   error
	calls      [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == "ffprobe" {
		return []byte(f.probe), f.probeErr
	}
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	return nil, os.WriteFile(args[len(args)-1], f.out, 0600)
}

func initTest(t *testing.T, r *fakeRunner) (*Normalizer, string) {
	t.Helper()
	n, err := NewNormalizer("ffmpeg", "ffprobe")
	require.Nil(t, err)
	n.runner = r
	n.tempDir = t.TempDir()
	return n, n.tempDir
}

func assertCleaned(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	assert.Empty(t, entries)
}

func TestNewNormalizer(t *testing.T) {
	_, err := NewNormalizer("", "ffprobe")
	assert.NotNil(t, err)
	_, err = NewNormalizer("ffmpeg", "")
	assert.NotNil(t, err)
}

func TestNormalize(t *testing.T) {
	r := &fakeRunner{out: []byte("mp3"), probe: "12.6\n"}
	n, dir := initTest(t, r)

	got, err := n.Normalize(test.Ctx(t), []byte("wav"), "Robin_9876543210.WAV")

	require.Nil(t, err)
	assert.Equal(t, &Result{Data: []byte("mp3"), Duration: 13}, got)
	require.Len(t, r.calls, 2)
	assert.Equal(t, "ffmpeg", r.calls[0][0])
	assert.Contains(t, r.calls[0], "16000")
	assert.Contains(t, r.calls[0], "64k")
	assert.Regexp(t, `in\.wav$`, r.calls[1][len(r.calls[1])-1])
	assertCleaned(t, dir)
}

func TestNormalize_DurationBestEffort(t *testing.T) {
	for _, tc := range []struct {
		name  string
		probe string
		err   error
	}{
		{name: "fail", err: fmt.Errorf("olia")},
		{name: "not number", probe: "N/A"},
		{name: "empty", probe: ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			n, dir := initTest(t, &fakeRunner{out: []byte("mp3"), probe: tc.probe, probeErr: tc.err})
			got, err := n.Normalize(test.Ctx(t), []byte("wav"), "a.wav")
			require.Nil(t, err)
			assert.Equal(t, 0, got.Duration)
			assertCleaned(t, dir)
		})
	}
}

func TestNormalize_Fail(t *testing.T) {
	n, dir := initTest(t, &fakeRunner{convertErr: fmt.Errorf("olia")})
	_, err := n.Normalize(test.Ctx(t), []byte("wav"), "a.wav")
	assert.NotNil(t, err)
	assertCleaned(t, dir)
}

func TestNormalize_EmptyOutput(t *testing.T) {
	n, dir := initTest(t, &fakeRunner{out: []byte{}})
	_, err := n.Normalize(test.Ctx(t), []byte("wav"), "a.wav")
	assert.NotNil(t, err)
	assertCleaned(t, dir)
}

func TestNormalize_NoData(t *testing.T) {
	n, _ := initTest(t, &fakeRunner{})
	_, err := n.Normalize(test.Ctx(t), nil, "a.wav")
	assert.NotNil(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		args string
		want int
	}{
		{args: "12.4", want: 12},
		{args: " 0.5\n", want: 1},
		{args: "0", want: 0},
		{args: "-3", want: 0},
		{args: "NaN", want: 0},
		{args: "abc", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDuration(tt.args))
		})
	}
}
