package types

// ChatRequest is the payload for POST /api/chat.
type ChatRequest struct {
	// Model identifier. If empty, the server default is used.
	// example: llama3-8b-8192
	Model string `json:"model,omitempty" example:"llama3-8b-8192"`
	// Ordered message history, oldest first.
	Messages []Message `json:"messages"`
	// Upstream API key. If empty, the server-configured key is used.
	Key string `json:"key,omitempty"`
	// System prompt. If empty, the server default is used.
	// example: You are a helpful assistant.
	Prompt string `json:"prompt,omitempty" example:"You are a helpful assistant."`
	// Sampling temperature. If omitted, the server default is used.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
	// Optional conversation id; when set, the exchange is recorded server-side.
	ConversationID string `json:"conversationId,omitempty"`
}

// ModelsRequest is the payload for POST /api/models.
type ModelsRequest struct {
	// Upstream API key. If empty, the server-configured key is used.
	Key string `json:"key,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// Conversation is the wire shape of a stored conversation.
type Conversation struct {
	// Conversation id (UUID).
	ID string `json:"id"`
	// Display name.
	// example: New Conversation
	Name string `json:"name" example:"New Conversation"`
	// Ordered message history, oldest first.
	Messages []Message `json:"messages"`
	// Model id the conversation is pinned to.
	// example: llama3-8b-8192
	Model string `json:"model" example:"llama3-8b-8192"`
	// System prompt in effect for this conversation.
	Prompt string `json:"prompt,omitempty"`
	// Sampling temperature in effect for this conversation.
	Temperature float64 `json:"temperature"`
	// Optional folder id grouping this conversation.
	FolderID string `json:"folderId,omitempty"`
}

// Folder groups conversations in the client UI.
type Folder struct {
	// Folder id (UUID).
	ID string `json:"id"`
	// Display name.
	Name string `json:"name"`
	// Folder kind; currently always "chat".
	Type string `json:"type"`
}

// ExportArchive is the versioned conversation archive produced by
// GET /api/export and accepted by POST /api/import.
type ExportArchive struct {
	// Archive format version.
	// example: 4
	Version int `json:"version" example:"4"`
	// All stored conversations.
	History []Conversation `json:"history"`
	// All stored folders.
	Folders []Folder `json:"folders"`
}
