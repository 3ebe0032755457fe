package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

// GetChatConversation returns the conversation record, or nil when absent.
func (d *DB) GetChatConversation(ctx context.Context, conversationID string) (*store.ChatConversation, error) {
	stmt := `
		SELECT id, conversation_id, user_id, intent, slots_json, created_ts, updated_ts
		FROM chat_conversation
		WHERE conversation_id = ?
	`
	var conv store.ChatConversation
	err := d.db.QueryRowContext(ctx, stmt, conversationID).Scan(
		&conv.ID,
		&conv.ConversationID,
		&conv.UserID,
		&conv.Intent,
		&conv.SlotsJSON,
		&conv.CreatedTs,
		&conv.UpdatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chat conversation")
	}
	return &conv, nil
}

func (d *DB) CreateChatConversation(ctx context.Context, create *store.ChatConversation) error {
	stmt := `
		INSERT INTO chat_conversation (conversation_id, user_id, intent, slots_json, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ConversationID,
		create.UserID,
		create.Intent,
		create.SlotsJSON,
		create.CreatedTs,
		create.UpdatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to create chat conversation")
	}
	return nil
}

func (d *DB) UpdateChatConversationState(ctx context.Context, update *store.UpdateChatConversationState) error {
	stmt := `
		UPDATE chat_conversation
		SET intent = ?, slots_json = ?, updated_ts = ?
		WHERE conversation_id = ?
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		update.Intent,
		update.SlotsJSON,
		update.UpdatedTs,
		update.ConversationID,
	); err != nil {
		return errors.Wrap(err, "failed to update chat conversation state")
	}
	return nil
}

func (d *DB) AppendChatMessage(ctx context.Context, msg *store.ChatMessage) error {
	stmt := `
		INSERT INTO chat_message (conversation_id, role, text, created_ts)
		VALUES (?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		msg.ConversationID,
		msg.Role,
		msg.Text,
		msg.CreatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to append chat message")
	}
	return nil
}

func (d *DB) ListChatMessages(ctx context.Context, conversationID string) ([]*store.ChatMessage, error) {
	stmt := `
		SELECT id, conversation_id, role, text, created_ts
		FROM chat_message
		WHERE conversation_id = ?
		ORDER BY id ASC
	`
	rows, err := d.db.QueryContext(ctx, stmt, conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	defer rows.Close()

	var messages []*store.ChatMessage
	for rows.Next() {
		var msg store.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Text, &msg.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat messages")
	}
	return messages, nil
}
