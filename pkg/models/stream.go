package models

type StreamType string

const (
	RawThought      StreamType = "raw_thought"
	TextResponse    StreamType = "text"
	AgreementResult StreamType = "agreement"
	ErrorResponse   StreamType = "error"
	DoneResponse    StreamType = "done"
)

// StreamResponse is one item of the creator's event stream as clients see it.
type StreamResponse struct {
	Type        StreamType `json:"type"`
	Status      string     `json:"status,omitempty"`
	Description string     `json:"description,omitempty"`
	Text        string     `json:"text,omitempty"`
	Agreement   *Agreement `json:"agreement,omitempty"`
	Error       *Error     `json:"error,omitempty"`
}
