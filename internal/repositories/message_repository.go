package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, tripID, senderID uuid.UUID, body string) (*models.Message, error)
	List(ctx context.Context, tripID uuid.UUID, before *time.Time, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, tripID, userID uuid.UUID, at time.Time) error
	UnreadCounts(ctx context.Context, userID uuid.UUID) ([]models.UnreadCount, error)
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, tripID, senderID uuid.UUID, body string) (*models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO messages (trip_id, sender_id, body)
VALUES ($1, $2, $3)
RETURNING id, trip_id, sender_id, body, created_at
`, tripID, senderID, body).StructScan(&msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns the newest messages first, optionally only those older than before.
func (r *messageRepository) List(ctx context.Context, tripID uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
SELECT id, trip_id, sender_id, body, created_at
FROM messages
WHERE trip_id=$1 AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at DESC
LIMIT $3
`, tripID, before, limit)
	return msgs, err
}

func (r *messageRepository) MarkRead(ctx context.Context, tripID, userID uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO message_reads (trip_id, user_id, last_read_at)
VALUES ($1, $2, $3)
ON CONFLICT (trip_id, user_id) DO UPDATE SET last_read_at = GREATEST(message_reads.last_read_at, EXCLUDED.last_read_at)
`, tripID, userID, at)
	return err
}

// UnreadCounts counts, for every trip the user owns or has joined, the
// messages from other members newer than the user's last read marker.
func (r *messageRepository) UnreadCounts(ctx context.Context, userID uuid.UUID) ([]models.UnreadCount, error) {
	counts := []models.UnreadCount{}
	err := r.db.SelectContext(ctx, &counts, `
WITH my_trips AS (
	SELECT id AS trip_id FROM trips WHERE owner_id=$1
	UNION
	SELECT trip_id FROM trip_participants WHERE user_id=$1 AND status='accepted'
)
SELECT mt.trip_id, COUNT(m.id) AS unread
FROM my_trips mt
LEFT JOIN message_reads r ON r.trip_id = mt.trip_id AND r.user_id = $1
LEFT JOIN messages m ON m.trip_id = mt.trip_id
	AND m.sender_id <> $1
	AND (r.last_read_at IS NULL OR m.created_at > r.last_read_at)
GROUP BY mt.trip_id
ORDER BY mt.trip_id
`, userID)
	return counts, err
}
