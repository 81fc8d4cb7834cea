package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

const recommendationColumns = "id, user_id, trip_id, name, city, country, place_id, category, notes, created_at"

type RecommendationRepository interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.SharedRecommendation, error)
	ListForTrip(ctx context.Context, tripID uuid.UUID) ([]models.SharedRecommendation, error)
	Create(ctx context.Context, rec *models.SharedRecommendation) (*models.SharedRecommendation, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type recommendationRepository struct {
	db *sqlx.DB
}

func NewRecommendationRepository(db *sqlx.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.SharedRecommendation, error) {
	recs := []models.SharedRecommendation{}
	err := r.db.SelectContext(ctx, &recs,
		"SELECT "+recommendationColumns+" FROM shared_recommendations WHERE user_id=$1 ORDER BY created_at DESC", userID)
	return recs, err
}

func (r *recommendationRepository) ListForTrip(ctx context.Context, tripID uuid.UUID) ([]models.SharedRecommendation, error) {
	recs := []models.SharedRecommendation{}
	err := r.db.SelectContext(ctx, &recs,
		"SELECT "+recommendationColumns+" FROM shared_recommendations WHERE trip_id=$1 ORDER BY created_at DESC", tripID)
	return recs, err
}

func (r *recommendationRepository) Create(ctx context.Context, rec *models.SharedRecommendation) (*models.SharedRecommendation, error) {
	var created models.SharedRecommendation
	err := r.db.GetContext(ctx, &created, `
INSERT INTO shared_recommendations (user_id, trip_id, name, city, country, place_id, category, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+recommendationColumns,
		rec.UserID, rec.TripID, rec.Name, rec.City, rec.Country, rec.PlaceID, rec.Category, rec.Notes)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *recommendationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM shared_recommendations WHERE id=$1 AND user_id=$2", id, userID))
}
