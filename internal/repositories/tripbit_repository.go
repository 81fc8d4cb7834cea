package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

const tripBitColumns = "id, trip_id, created_by, category, title, starts_at, ends_at, location, details, created_at"

type TripBitRepository interface {
	List(ctx context.Context, tripID uuid.UUID) ([]models.TripBit, error)
	Create(ctx context.Context, bit *models.TripBit) (*models.TripBit, error)
	Delete(ctx context.Context, tripID, bitID uuid.UUID) error
}

type tripBitRepository struct {
	db *sqlx.DB
}

func NewTripBitRepository(db *sqlx.DB) TripBitRepository {
	return &tripBitRepository{db: db}
}

func (r *tripBitRepository) List(ctx context.Context, tripID uuid.UUID) ([]models.TripBit, error) {
	bits := []models.TripBit{}
	err := r.db.SelectContext(ctx, &bits, `
SELECT `+tripBitColumns+`
FROM trip_bits
WHERE trip_id=$1
ORDER BY starts_at NULLS LAST, created_at
`, tripID)
	return bits, err
}

func (r *tripBitRepository) Create(ctx context.Context, bit *models.TripBit) (*models.TripBit, error) {
	details := "{}"
	if len(bit.Details) > 0 {
		details = string(bit.Details)
	}
	var created models.TripBit
	err := r.db.GetContext(ctx, &created, `
INSERT INTO trip_bits (trip_id, created_by, category, title, starts_at, ends_at, location, details)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
RETURNING `+tripBitColumns,
		bit.TripID, bit.CreatedBy, bit.Category, bit.Title, bit.StartsAt, bit.EndsAt, bit.Location, details)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *tripBitRepository) Delete(ctx context.Context, tripID, bitID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM trip_bits WHERE trip_id=$1 AND id=$2", tripID, bitID))
}
