package domain

// ChatMessage is the provider-agnostic chat message shape used by the
// classifier and LLM integrations. ImageURL is only set on user messages of
// image analysis requests; it may be an http(s) URL or a data URL.
type ChatMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ImageURL string `json:"-"`
}

// ChatRequest describes one completion round trip.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature *float64
	MaxTokens   int
}
