package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

const notificationColumns = "id, user_id, type, from_user_id, trip_id, friendship_id, read, created_at"

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	var created models.Notification
	err := r.db.GetContext(ctx, &created, `
INSERT INTO notifications (user_id, type, from_user_id, trip_id, friendship_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+notificationColumns, n.UserID, n.Type, n.FromUserID, n.TripID, n.FriendshipID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	items := []models.Notification{}
	err := r.db.SelectContext(ctx, &items, `
SELECT `+notificationColumns+`
FROM notifications
WHERE user_id=$1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	return items, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2", id, userID))
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET read=TRUE WHERE user_id=$1 AND NOT read", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
