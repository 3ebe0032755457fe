package store

// ChatConversation is one durable conversation record. The in-memory cache in
// chat/session fronts these rows; eviction there never deletes them here.
type ChatConversation struct {
	ConversationID string
	UserID         string
	Intent         string
	SlotsJSON      string // serialized slot map, "" when no flow in progress
	CreatedTs      int64
	UpdatedTs      int64
	ID             int64
}

// UpdateChatConversationState writes through the (intent, slots) pair at the
// end of a turn.
type UpdateChatConversationState struct {
	ConversationID string
	Intent         string
	SlotsJSON      string
	UpdatedTs      int64
}

// ChatMessage is one transcript entry.
type ChatMessage struct {
	ConversationID string
	Role           string // user, assistant
	Text           string
	CreatedTs      int64
	ID             int64
}
