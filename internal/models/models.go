package models

// Chunk is a bounded span of page text paired with its embedding vector
// and source metadata. Immutable once written to the vector store.
type Chunk struct {
	FileName   string
	PageNumber int
	Text       string
	Vector     []float32
}

// RetrievedChunk is a similarity-search hit. The stored vector is never
// projected back out of the store; Rank is the zero-based relevance
// position in the result set.
type RetrievedChunk struct {
	FileName   string
	PageNumber int
	Text       string
	Rank       int
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-annotated conversation turn.
type Message struct {
	Role    Role
	Content string
}
