// Package store provides database access to all raw objects.
package store

import (
	"context"

	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) GetChatConversation(ctx context.Context, conversationID string) (*ChatConversation, error) {
	return s.driver.GetChatConversation(ctx, conversationID)
}

func (s *Store) CreateChatConversation(ctx context.Context, create *ChatConversation) error {
	return s.driver.CreateChatConversation(ctx, create)
}

func (s *Store) UpdateChatConversationState(ctx context.Context, update *UpdateChatConversationState) error {
	return s.driver.UpdateChatConversationState(ctx, update)
}

func (s *Store) AppendChatMessage(ctx context.Context, msg *ChatMessage) error {
	return s.driver.AppendChatMessage(ctx, msg)
}

func (s *Store) ListChatMessages(ctx context.Context, conversationID string) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, conversationID)
}

func (s *Store) CreateChatBooking(ctx context.Context, create *ChatBooking) error {
	return s.driver.CreateChatBooking(ctx, create)
}

func (s *Store) GetChatBooking(ctx context.Context, bookingID string) (*ChatBooking, error) {
	return s.driver.GetChatBooking(ctx, bookingID)
}

func (s *Store) ListChatBookingsByUser(ctx context.Context, userID string) ([]*ChatBooking, error) {
	return s.driver.ListChatBookingsByUser(ctx, userID)
}

func (s *Store) UpdateChatBookingStatus(ctx context.Context, bookingID string, status BookingStatus) error {
	return s.driver.UpdateChatBookingStatus(ctx, bookingID, string(status))
}

func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.driver.GetUser(ctx, userID)
}

func (s *Store) UpsertUser(ctx context.Context, upsert *User) error {
	return s.driver.UpsertUser(ctx, upsert)
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	return s.driver.UpdateUser(ctx, update)
}

func (s *Store) CreateAuditLog(ctx context.Context, create *AuditLog) error {
	return s.driver.CreateAuditLog(ctx, create)
}

func (s *Store) CreateNotification(ctx context.Context, create *Notification) error {
	return s.driver.CreateNotification(ctx, create)
}
