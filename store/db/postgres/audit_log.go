package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

func (d *DB) CreateAuditLog(ctx context.Context, create *store.AuditLog) error {
	stmt := `
		INSERT INTO audit_log (audit_id, actor_user_id, action, target_user_id, details_json, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.AuditID,
		create.ActorUserID,
		create.Action,
		create.TargetUserID,
		create.DetailsJSON,
		create.CreatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to create audit log")
	}
	return nil
}

func (d *DB) CreateNotification(ctx context.Context, create *store.Notification) error {
	stmt := `
		INSERT INTO notification (notification_id, user_id, type, title, body, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.NotificationID,
		create.UserID,
		create.Type,
		create.Title,
		create.Body,
		create.CreatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	return nil
}
