package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_defaultV(t *testing.T) {
	assert.Equal(t, "ffmpeg", defaultV("", "ffmpeg"))
	assert.Equal(t, "/usr/bin/ffmpeg", defaultV("/usr/bin/ffmpeg", "ffmpeg"))
	assert.Equal(t, 2, defaultV(0, 2))
	assert.Equal(t, 10, defaultV(10, 2))
	assert.Equal(t, time.Minute, defaultV(time.Duration(0), time.Minute))
}
