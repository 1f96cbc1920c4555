package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testStage string

func (s testStage) String() string { return string(s) }

func TestErrStage_Error(t *testing.T) {
	assert.Equal(t, "downloading failed: olia", NewErrStage(testStage("downloading"), errors.New("olia")).Error())
}

func TestErrStage_Unwrap(t *testing.T) {
	assert.True(t, errors.Is(NewErrStage(testStage("a"), io.EOF), io.EOF))
	var es *ErrStage
	assert.True(t, errors.As(NewErrStage(testStage("a"), io.EOF), &es))
	assert.Equal(t, "a", es.Stage)
}

func TestLimit(t *testing.T) {
	tests := []struct {
		name string
		s    string
		l    int
		want string
	}{
		{name: "short", s: "olia", l: 10, want: "olia"},
		{name: "exact", s: "olia", l: 4, want: "olia"},
		{name: "cut", s: "olia olia", l: 4, want: "olia"},
		{name: "runes", s: "ąčęė", l: 2, want: "ąč"},
		{name: "empty", s: "", l: 2, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Limit(tt.s, tt.l))
		})
	}
}
