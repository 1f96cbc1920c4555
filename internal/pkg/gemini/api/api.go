package api

type (
	// Request is a generateContent request body
	Request struct {
		Contents         []Content         `json:"contents"`
		GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	}

	// Content holds the parts of one turn
	Content struct {
		Role  string `json:"role,omitempty"`
		Parts []Part `json:"parts"`
	}

	// Part is text or inline binary data
	Part struct {
		Text       string      `json:"text,omitempty"`
		InlineData *InlineData `json:"inline_data,omitempty"`
	}

	// InlineData is base64 encoded data
	InlineData struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	}

	// GenerationConfig model params
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	}

	// Response is a generateContent response
	Response struct {
		Candidates     []Candidate     `json:"candidates"`
		PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	}

	// Candidate is one generated answer
	Candidate struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	}

	// PromptFeedback tells if the prompt was blocked
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	}
)
