package domain

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is a retrieved excerpt cited by an assistant answer.
type Source struct {
	Source         string `json:"source"`
	ContentPreview string `json:"content_preview"`
}

// ChatMessage is one turn of the conversation as reported by the backend.
type ChatMessage struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// UploadResult is the body returned by POST /upload.
type UploadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ChatAnswer carries the answer text and its citations.
type ChatAnswer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// ChatResult is the body returned by POST /chat. Response is set on success,
// Message on failure.
type ChatResult struct {
	Success  bool        `json:"success"`
	Response *ChatAnswer `json:"response,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// HistoryResult is the body returned by GET /history.
type HistoryResult struct {
	Success bool          `json:"success"`
	History []ChatMessage `json:"history"`
}

// ServiceStatus is the body returned by the backend's API key probe.
type ServiceStatus struct {
	Status string `json:"status"`
}
