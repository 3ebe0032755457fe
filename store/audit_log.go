package store

// AuditLog records one privileged action on another user's data.
type AuditLog struct {
	AuditID      string
	ActorUserID  string
	Action       string
	TargetUserID string
	DetailsJSON  string
	CreatedTs    int64
	ID           int64
}

// Notification is a message delivered to a user out of band, created when
// someone else's action touched their data.
type Notification struct {
	NotificationID string
	UserID         string
	Type           string
	Title          string
	Body           string
	CreatedTs      int64
	ID             int64
}
