package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"roamwyth/internal/models"
)

const (
	tripColumns        = "id, owner_id, name, description, start_date, end_date, flexible_month, visibility, created_at, updated_at"
	locationColumns    = "id, trip_id, name, country, place_id, position"
	participantColumns = "id, trip_id, user_id, role, status, invited_by, joined_at, created_at"
)

// RosterRows is the unstitched result of a roster query.
type RosterRows struct {
	Trips        []models.Trip
	Participants []models.TripParticipant
	Locations    []models.TripLocation
}

type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip, locations []models.TripLocation) (*models.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	Update(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListRoster(ctx context.Context, userID uuid.UUID) (*RosterRows, error)

	AddLocation(ctx context.Context, loc *models.TripLocation) (*models.TripLocation, error)
	DeleteLocation(ctx context.Context, tripID, locationID uuid.UUID) error

	GetParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error)
	InviteParticipant(ctx context.Context, tripID, userID, invitedBy uuid.UUID) (*models.TripParticipant, error)
	RespondToInvite(ctx context.Context, tripID, userID uuid.UUID, accept bool) (*models.TripParticipant, error)
	RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) error
	MemberIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
}

type tripRepository struct {
	db *sqlx.DB
}

func NewTripRepository(db *sqlx.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip, locations []models.TripLocation) (*models.Trip, error) {
	var created models.Trip
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &created, `
INSERT INTO trips (owner_id, name, description, start_date, end_date, flexible_month, visibility)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+tripColumns,
			trip.OwnerID, trip.Name, trip.Description, trip.StartDate, trip.EndDate, trip.FlexibleMonth, trip.Visibility); err != nil {
			return err
		}

		created.Locations = make([]models.TripLocation, 0, len(locations))
		for i, loc := range locations {
			var inserted models.TripLocation
			if err := tx.GetContext(ctx, &inserted, `
INSERT INTO trip_locations (trip_id, name, country, place_id, position)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+locationColumns, created.ID, loc.Name, loc.Country, loc.PlaceID, i); err != nil {
				return err
			}
			created.Locations = append(created.Locations, inserted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	created.Participants = []models.TripParticipant{}
	return &created, nil
}

func (r *tripRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.GetContext(ctx, &trip, "SELECT "+tripColumns+" FROM trips WHERE id=$1", id); err != nil {
		return nil, err
	}

	trip.Locations = []models.TripLocation{}
	if err := r.db.SelectContext(ctx, &trip.Locations,
		"SELECT "+locationColumns+" FROM trip_locations WHERE trip_id=$1 ORDER BY position", id); err != nil {
		return nil, err
	}
	trip.Participants = []models.TripParticipant{}
	if err := r.db.SelectContext(ctx, &trip.Participants,
		"SELECT "+participantColumns+" FROM trip_participants WHERE trip_id=$1 ORDER BY created_at", id); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	var updated models.Trip
	err := r.db.GetContext(ctx, &updated, `
UPDATE trips
SET name=$2, description=$3, start_date=$4, end_date=$5, flexible_month=$6, visibility=$7, updated_at=NOW()
WHERE id=$1
RETURNING `+tripColumns,
		trip.ID, trip.Name, trip.Description, trip.StartDate, trip.EndDate, trip.FlexibleMonth, trip.Visibility)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *tripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM trips WHERE id=$1", id))
}

func (r *tripRepository) ListRoster(ctx context.Context, userID uuid.UUID) (*RosterRows, error) {
	rows := &RosterRows{
		Trips:        []models.Trip{},
		Participants: []models.TripParticipant{},
		Locations:    []models.TripLocation{},
	}
	if err := r.db.SelectContext(ctx, &rows.Trips, `
SELECT `+tripColumns+`
FROM trips
WHERE owner_id=$1
UNION
SELECT `+prefixed("t", tripColumns)+`
FROM trips t
JOIN trip_participants p ON p.trip_id = t.id
WHERE p.user_id=$1 AND p.status='accepted'
`, userID); err != nil {
		return nil, err
	}
	if len(rows.Trips) == 0 {
		return rows, nil
	}

	ids := make([]uuid.UUID, len(rows.Trips))
	for i, t := range rows.Trips {
		ids[i] = t.ID
	}
	idArray := pq.Array(uuidStrings(ids))

	if err := r.db.SelectContext(ctx, &rows.Participants,
		"SELECT "+participantColumns+" FROM trip_participants WHERE trip_id = ANY($1::uuid[]) ORDER BY created_at", idArray); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &rows.Locations,
		"SELECT "+locationColumns+" FROM trip_locations WHERE trip_id = ANY($1::uuid[]) ORDER BY position", idArray); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *tripRepository) AddLocation(ctx context.Context, loc *models.TripLocation) (*models.TripLocation, error) {
	var inserted models.TripLocation
	err := r.db.GetContext(ctx, &inserted, `
INSERT INTO trip_locations (trip_id, name, country, place_id, position)
SELECT $1, $2, $3, $4, COALESCE(MAX(position), -1) + 1 FROM trip_locations WHERE trip_id=$1
RETURNING `+locationColumns, loc.TripID, loc.Name, loc.Country, loc.PlaceID)
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}

func (r *tripRepository) DeleteLocation(ctx context.Context, tripID, locationID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM trip_locations WHERE trip_id=$1 AND id=$2", tripID, locationID))
}

func (r *tripRepository) GetParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error) {
	var p models.TripParticipant
	err := r.db.GetContext(ctx, &p,
		"SELECT "+participantColumns+" FROM trip_participants WHERE trip_id=$1 AND user_id=$2", tripID, userID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *tripRepository) InviteParticipant(ctx context.Context, tripID, userID, invitedBy uuid.UUID) (*models.TripParticipant, error) {
	var p models.TripParticipant
	err := r.db.GetContext(ctx, &p, `
INSERT INTO trip_participants (trip_id, user_id, role, status, invited_by)
VALUES ($1, $2, 'member', 'invited', $3)
ON CONFLICT (trip_id, user_id) DO UPDATE SET status='invited', invited_by=EXCLUDED.invited_by
WHERE trip_participants.status = 'declined'
RETURNING `+participantColumns, tripID, userID, invitedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantExists
		}
		return nil, err
	}
	return &p, nil
}

func (r *tripRepository) RespondToInvite(ctx context.Context, tripID, userID uuid.UUID, accept bool) (*models.TripParticipant, error) {
	status := models.ParticipantDeclined
	if accept {
		status = models.ParticipantAccepted
	}
	var p models.TripParticipant
	err := r.db.GetContext(ctx, &p, `
UPDATE trip_participants
SET status=$3, joined_at=CASE WHEN $3='accepted' THEN NOW() ELSE joined_at END
WHERE trip_id=$1 AND user_id=$2 AND status IN ('invited','pending')
RETURNING `+participantColumns, tripID, userID, status)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *tripRepository) RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM trip_participants WHERE trip_id=$1 AND user_id=$2", tripID, userID))
}

func (r *tripRepository) MemberIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
SELECT owner_id FROM trips WHERE id=$1
UNION
SELECT user_id FROM trip_participants WHERE trip_id=$1 AND status='accepted'
`, tripID)
	return ids, err
}

// prefixed qualifies every column in a comma separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
