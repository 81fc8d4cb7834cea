package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

const friendshipColumns = "id, requester_id, addressee_id, status, created_at, updated_at"

type FriendRepository interface {
	// Request creates a pending row, or revives a declined row between the
	// same two users. Any other existing row yields ErrFriendshipExists.
	Request(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	Respond(ctx context.Context, id, userID uuid.UUID, status models.FriendshipStatus) (*models.Friendship, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (*models.Friendship, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
}

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Request(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO friendships (requester_id, addressee_id, status)
VALUES ($1, $2, 'pending')
ON CONFLICT ((LEAST(requester_id, addressee_id)), (GREATEST(requester_id, addressee_id)))
DO UPDATE SET requester_id = EXCLUDED.requester_id,
	addressee_id = EXCLUDED.addressee_id,
	status = 'pending',
	updated_at = NOW()
WHERE friendships.status = 'declined'
RETURNING `+friendshipColumns, requesterID, addresseeID).StructScan(&f)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFriendshipExists
		}
		return nil, err
	}
	return &f, nil
}

func (r *friendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.GetContext(ctx, &f, "SELECT "+friendshipColumns+" FROM friendships WHERE id=$1", id); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendRepository) Respond(ctx context.Context, id, userID uuid.UUID, status models.FriendshipStatus) (*models.Friendship, error) {
	var updated models.Friendship
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var f models.Friendship
		if err := tx.GetContext(ctx, &f, "SELECT "+friendshipColumns+" FROM friendships WHERE id=$1 FOR UPDATE", id); err != nil {
			return err
		}
		if f.AddresseeID != userID {
			return ErrRequestForbidden
		}
		if f.Status != models.FriendshipPending {
			return ErrRequestNotPending
		}
		return tx.GetContext(ctx, &updated, `
UPDATE friendships SET status=$2, updated_at=NOW()
WHERE id=$1
RETURNING `+friendshipColumns, id, status)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *friendRepository) Delete(ctx context.Context, id, userID uuid.UUID) (*models.Friendship, error) {
	var deleted models.Friendship
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var f models.Friendship
		if err := tx.GetContext(ctx, &f, "SELECT "+friendshipColumns+" FROM friendships WHERE id=$1 FOR UPDATE", id); err != nil {
			return err
		}
		if !f.Involves(userID) {
			return ErrRequestForbidden
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM friendships WHERE id=$1", id); err != nil {
			return err
		}
		deleted = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (r *friendRepository) ListPending(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	rows := []models.Friendship{}
	err := r.db.SelectContext(ctx, &rows, `
SELECT `+friendshipColumns+`
FROM friendships
WHERE (requester_id=$1 OR addressee_id=$1) AND status='pending'
ORDER BY created_at DESC
`, userID)
	return rows, err
}

func (r *friendRepository) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	friends := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &friends, `
SELECT CASE WHEN requester_id=$1 THEN addressee_id ELSE requester_id END
FROM friendships
WHERE (requester_id=$1 OR addressee_id=$1) AND status='accepted'
ORDER BY updated_at DESC
`, userID)
	return friends, err
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(
SELECT 1 FROM friendships
WHERE ((requester_id=$1 AND addressee_id=$2) OR (requester_id=$2 AND addressee_id=$1))
AND status='accepted'
)
`, userID, otherID)
	return exists, err
}
