// Package audit records who changed whose profile, and tells the
// affected user about it. Both writes are best effort so a full audit
// table can never block a chat turn.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

// Sink writes audit entries and user notifications through the store.
type Sink struct {
	store *store.Store
}

func NewSink(st *store.Store) *Sink {
	return &Sink{store: st}
}

// RecordProfileUpdate logs a cross-user profile edit and notifies the
// target user. Returns the generated audit and notification IDs so the
// caller can echo them back in its answer.
func (s *Sink) RecordProfileUpdate(ctx context.Context, actorUserID, actorRole, targetUserID string, patch any) (auditID, notificationID string) {
	details, err := json.Marshal(patch)
	if err != nil {
		details = []byte("{}")
	}
	now := time.Now().Unix()

	auditID = uuid.NewString()
	notificationID = uuid.NewString()

	err = s.store.CreateAuditLog(ctx, &store.AuditLog{
		AuditID:      auditID,
		ActorUserID:  actorUserID,
		Action:       "user.profile.update",
		TargetUserID: targetUserID,
		DetailsJSON:  string(details),
		CreatedTs:    now,
	})
	if err != nil {
		slog.Warn("failed to write audit log", "actor", actorUserID, "target", targetUserID, "err", err)
	}

	err = s.store.CreateNotification(ctx, &store.Notification{
		NotificationID: notificationID,
		UserID:         targetUserID,
		Type:           "profile_updated",
		Title:          "Your profile has been updated",
		Body:           fmt.Sprintf("%s(%s) modified your profile.", actorRole, actorUserID),
		CreatedTs:      now,
	})
	if err != nil {
		slog.Warn("failed to write notification", "target", targetUserID, "err", err)
	}
	return auditID, notificationID
}
