package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for accessing the database.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// Conversation state + transcript.
	GetChatConversation(ctx context.Context, conversationID string) (*ChatConversation, error)
	CreateChatConversation(ctx context.Context, create *ChatConversation) error
	UpdateChatConversationState(ctx context.Context, update *UpdateChatConversationState) error
	AppendChatMessage(ctx context.Context, append *ChatMessage) error
	ListChatMessages(ctx context.Context, conversationID string) ([]*ChatMessage, error)

	// Chat bookings.
	CreateChatBooking(ctx context.Context, create *ChatBooking) error
	GetChatBooking(ctx context.Context, bookingID string) (*ChatBooking, error)
	ListChatBookingsByUser(ctx context.Context, userID string) ([]*ChatBooking, error)
	UpdateChatBookingStatus(ctx context.Context, bookingID string, status string) error

	// User profiles.
	GetUser(ctx context.Context, userID string) (*User, error)
	UpsertUser(ctx context.Context, upsert *User) error
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)

	// Audit + notification sink.
	CreateAuditLog(ctx context.Context, create *AuditLog) error
	CreateNotification(ctx context.Context, create *Notification) error
}
