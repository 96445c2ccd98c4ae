package types

// Model describes a chat model offered through the relay.
type Model struct {
	// Stable identifier used by the upstream provider.
	// example: llama3-8b-8192
	ID string `json:"id" example:"llama3-8b-8192"`
	// Human-friendly name.
	// example: LLaMA 3 8B
	Name string `json:"name" example:"LLaMA 3 8B"`
	// Maximum prompt length in characters accepted by the client UI.
	// example: 24576
	MaxLength int `json:"maxLength" example:"24576"`
	// Maximum context length in model-specific token units.
	// example: 8192
	TokenLimit int `json:"tokenLimit" example:"8192"`
}

// Message is a single conversation entry, oldest first.
type Message struct {
	// Role of the author: system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Message text.
	// example: Write a haiku about the ocean.
	Content string `json:"content" example:"Write a haiku about the ocean."`
}
