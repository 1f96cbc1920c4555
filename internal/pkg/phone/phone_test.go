package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("")
	tests := []struct {
		args string
		want string
	}{
		{args: "9876543210", want: "919876543210"},
		{args: "+919876543210", want: "919876543210"},
		{args: "09876543210", want: "919876543210"},
		{args: "919876543210", want: "919876543210"},
		{args: "+91 98765 43210", want: "919876543210"},
		{args: "98765-43210", want: "919876543210"},
		{args: "0091 9876543210", want: "919876543210"},
		{args: "+14155550123", want: "14155550123"},
		{args: "12345", want: ""},
		{args: "", want: ""},
		{args: "+12345", want: ""},
		{args: "1234567890123", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.args))
		})
	}
}

func TestNormalize_sameForm(t *testing.T) {
	n := NewNormalizer("91")
	assert.Equal(t, n.Normalize("9876543210"), n.Normalize("+919876543210"))
	assert.Equal(t, n.Normalize("9876543210"), n.Normalize("09876543210"))
	assert.Equal(t, "919876543210", n.Normalize("09876543210"))
}

func TestNormalize_countryCode(t *testing.T) {
	n := NewNormalizer("+1")
	assert.Equal(t, "14155550123", n.Normalize("4155550123"))
	assert.Equal(t, "14155550123", n.Normalize("14155550123"))
}

func TestExtract(t *testing.T) {
	n := NewNormalizer("")
	tests := []struct {
		name      string
		args      string
		wantPhone string
		wantName  string
	}{
		{name: "Name_Phone", args: "Robin_Avadi_9876543210.wav", wantPhone: "919876543210", wantName: "Robin Avadi"},
		{name: "Name_Phone_Date", args: "Kumar_9876543210_20240101.m4a", wantPhone: "919876543210", wantName: "Kumar"},
		{name: "Name_Phone_Date dashes", args: "Kumar_98765-43210_2024-01-01.m4a", wantPhone: "919876543210", wantName: "Kumar"},
		{name: "Name_Phone_Date spaces", args: "Kumar_98765 43210_2024.m4a", wantPhone: "919876543210", wantName: "Kumar"},
		{name: "Prefix_Phone", args: "Call_9876543210.mp3", wantPhone: "919876543210", wantName: ""},
		{name: "Prefix_Phone recording", args: "recording_09876543210.mp3", wantPhone: "919876543210", wantName: ""},
		{name: "Call_+CC", args: "Call_+919876543210.ogg", wantPhone: "919876543210", wantName: ""},
		{name: "Call_+CC spaced", args: "Call_+91 98765 43210.ogg", wantPhone: "919876543210", wantName: ""},
		{name: "Call recording Name", args: "Call recording Robin Avadi_9876543210_240101_103000.m4a",
			wantPhone: "919876543210", wantName: "Robin Avadi"},
		{name: "Phone_Name", args: "9876543210_Suresh.mp3", wantPhone: "919876543210", wantName: "Suresh"},
		{name: "Path", args: "/tmp/x/Robin_9876543210.wav", wantPhone: "919876543210", wantName: "Robin"},
		{name: "Short name skipped", args: "A_9876543210.wav", wantPhone: "919876543210", wantName: ""},
		{name: "Date_Phone dashes", args: "Call 2024-01-01 9876543210.m4a", wantPhone: "919876543210", wantName: ""},
		{name: "Name_Date_Phone spaces", args: "Kumar 2024 01 01 98765 43210.m4a", wantPhone: "919876543210",
			wantName: "Kumar"},
		{name: "Name_Date_Phone", args: "Kumar_2024-01-01_9876543210.m4a", wantPhone: "919876543210", wantName: "Kumar"},
		{name: "Date_+CC", args: "2024 01 01 +91 98765 43210.m4a", wantPhone: "919876543210", wantName: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Extract(tt.args)
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantPhone, got.Phone)
				assert.Equal(t, tt.wantName, got.Name)
			}
		})
	}
}

func TestExtract_NoPhone(t *testing.T) {
	n := NewNormalizer("")
	for _, s := range []string{"voice_12345.ogg", "audio.mp3", "", "Robin_Avadi.wav", "20240101_103000.m4a"} {
		t.Run(s, func(t *testing.T) {
			assert.Nil(t, n.Extract(s))
		})
	}
}

func TestExtract_SeparatorsGiveSamePhone(t *testing.T) {
	n := NewNormalizer("")
	a := n.Extract("Robin_9876543210_20240101.wav")
	b := n.Extract("Robin_98765-43210_20240101.wav")
	c := n.Extract("Robin_98765 43210_20240101.wav")
	d := n.Extract("Robin_+91 98765 43210_20240101.wav")
	assert.Equal(t, a.Phone, b.Phone)
	assert.Equal(t, a.Phone, c.Phone)
	assert.Equal(t, a.Phone, d.Phone)
}
