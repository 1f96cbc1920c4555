package api

import "strings"

type (
	// Update is a webhook envelope
	Update struct {
		UpdateID int64    `json:"update_id"`
		Message  *Message `json:"message,omitempty"`
	}

	// Message is an incoming chat message
	Message struct {
		MessageID int64     `json:"message_id"`
		From      *User     `json:"from,omitempty"`
		Chat      Chat      `json:"chat"`
		Date      int64     `json:"date,omitempty"`
		Text      string    `json:"text,omitempty"`
		Caption   string    `json:"caption,omitempty"`
		Voice     *Voice    `json:"voice,omitempty"`
		Audio     *Audio    `json:"audio,omitempty"`
		Document  *Document `json:"document,omitempty"`
	}

	// Chat info
	Chat struct {
		ID    int64  `json:"id"`
		Type  string `json:"type,omitempty"`
		Title string `json:"title,omitempty"`
	}

	// User info
	User struct {
		ID        int64  `json:"id"`
		Username  string `json:"username,omitempty"`
		FirstName string `json:"first_name,omitempty"`
	}

	// Voice is a recorded voice note
	Voice struct {
		FileID   string `json:"file_id"`
		Duration int    `json:"duration,omitempty"`
		MimeType string `json:"mime_type,omitempty"`
		FileSize int64  `json:"file_size,omitempty"`
	}

	// Audio is a music or audio file
	Audio struct {
		FileID   string `json:"file_id"`
		Duration int    `json:"duration,omitempty"`
		FileName string `json:"file_name,omitempty"`
		MimeType string `json:"mime_type,omitempty"`
		FileSize int64  `json:"file_size,omitempty"`
	}

	// Document is any file
	Document struct {
		FileID   string `json:"file_id"`
		FileName string `json:"file_name,omitempty"`
		MimeType string `json:"mime_type,omitempty"`
		FileSize int64  `json:"file_size,omitempty"`
	}

	// File is a getFile result
	File struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path,omitempty"`
		FileSize int64  `json:"file_size,omitempty"`
	}

	// Response is a bot API response
	Response[T any] struct {
		OK          bool   `json:"ok"`
		Result      T      `json:"result,omitempty"`
		ErrorCode   int    `json:"error_code,omitempty"`
		Description string `json:"description,omitempty"`
	}

	// SendMessage is a sendMessage request
	SendMessage struct {
		ChatID                int64  `json:"chat_id"`
		Text                  string `json:"text"`
		ParseMode             string `json:"parse_mode,omitempty"`
		DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	}

	// AudioRef is an audio payload of a message
	AudioRef struct {
		FileID   string
		FileName string
		MimeType string
		FileSize int64
		Kind     string
	}
)

// AudioFile returns audio payload or nil if the message has none.
// Documents are accepted only with audio/* mime type
func (m *Message) AudioFile() *AudioRef {
	if m == nil {
		return nil
	}
	switch {
	case m.Voice != nil:
		return &AudioRef{FileID: m.Voice.FileID, MimeType: m.Voice.MimeType, FileSize: m.Voice.FileSize, Kind: "voice"}
	case m.Audio != nil:
		return &AudioRef{FileID: m.Audio.FileID, FileName: m.Audio.FileName, MimeType: m.Audio.MimeType,
			FileSize: m.Audio.FileSize, Kind: "audio"}
	case m.Document != nil && strings.HasPrefix(strings.ToLower(m.Document.MimeType), "audio/"):
		return &AudioRef{FileID: m.Document.FileID, FileName: m.Document.FileName, MimeType: m.Document.MimeType,
			FileSize: m.Document.FileSize, Kind: "document"}
	}
	return nil
}

// UserID returns sender id or 0
func (m *Message) UserID() int64 {
	if m == nil || m.From == nil {
		return 0
	}
	return m.From.ID
}
