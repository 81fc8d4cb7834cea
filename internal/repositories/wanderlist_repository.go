package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

type WanderlistRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.WanderlistItem, error)
	Create(ctx context.Context, item *models.WanderlistItem) (*models.WanderlistItem, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type wanderlistRepository struct {
	db *sqlx.DB
}

func NewWanderlistRepository(db *sqlx.DB) WanderlistRepository {
	return &wanderlistRepository{db: db}
}

func (r *wanderlistRepository) List(ctx context.Context, userID uuid.UUID) ([]models.WanderlistItem, error) {
	items := []models.WanderlistItem{}
	err := r.db.SelectContext(ctx, &items, `
SELECT id, user_id, city, country, place_id, notes, created_at
FROM wanderlist_items
WHERE user_id=$1
ORDER BY created_at DESC
`, userID)
	return items, err
}

func (r *wanderlistRepository) Create(ctx context.Context, item *models.WanderlistItem) (*models.WanderlistItem, error) {
	var created models.WanderlistItem
	err := r.db.GetContext(ctx, &created, `
INSERT INTO wanderlist_items (user_id, city, country, place_id, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, city, country, place_id, notes, created_at
`, item.UserID, item.City, item.Country, item.PlaceID, item.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

func (r *wanderlistRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM wanderlist_items WHERE id=$1 AND user_id=$2", id, userID))
}
