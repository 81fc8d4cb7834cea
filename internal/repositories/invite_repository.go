package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roamwyth/internal/models"
)

const inviteColumns = "id, trip_id, code, created_by, expires_at, max_uses, usage_count, location_ids, tripbit_ids, created_at"

// AcceptOutcome describes what an accepted invite did. Joined is false when
// the user already held an accepted place and nothing was written.
type AcceptOutcome struct {
	Participant models.TripParticipant
	Joined      bool
	UsageCount  int
}

type InviteRepository interface {
	Create(ctx context.Context, link *models.InviteLink) (*models.InviteLink, error)
	GetByCode(ctx context.Context, code string) (*models.InviteLink, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.InviteLink, error)
	Delete(ctx context.Context, tripID, inviteID uuid.UUID) error
	Accept(ctx context.Context, inviteID, userID uuid.UUID, now time.Time) (*AcceptOutcome, error)
}

type inviteRepository struct {
	db *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, link *models.InviteLink) (*models.InviteLink, error) {
	var created models.InviteLink
	err := r.db.GetContext(ctx, &created, `
INSERT INTO trip_invite_links (trip_id, code, created_by, expires_at, max_uses, location_ids, tripbit_ids)
VALUES ($1, $2, $3, $4, $5, COALESCE($6::uuid[], '{}'), COALESCE($7::uuid[], '{}'))
RETURNING `+inviteColumns,
		link.TripID, link.Code, link.CreatedBy, link.ExpiresAt, link.MaxUses, link.LocationIDs, link.TripBitIDs)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*models.InviteLink, error) {
	var link models.InviteLink
	if err := r.db.GetContext(ctx, &link, "SELECT "+inviteColumns+" FROM trip_invite_links WHERE code=$1", code); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *inviteRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.InviteLink, error) {
	links := []models.InviteLink{}
	err := r.db.SelectContext(ctx, &links,
		"SELECT "+inviteColumns+" FROM trip_invite_links WHERE trip_id=$1 ORDER BY created_at DESC", tripID)
	return links, err
}

func (r *inviteRepository) Delete(ctx context.Context, tripID, inviteID uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "DELETE FROM trip_invite_links WHERE trip_id=$1 AND id=$2", tripID, inviteID))
}

// Accept joins userID to the invite's trip. The invite row is locked for the
// duration so concurrent accepts are serialised and usage_count only moves
// when a participant row actually transitions to accepted.
func (r *inviteRepository) Accept(ctx context.Context, inviteID, userID uuid.UUID, now time.Time) (*AcceptOutcome, error) {
	var outcome AcceptOutcome
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var link models.InviteLink
		if err := tx.GetContext(ctx, &link,
			"SELECT "+inviteColumns+" FROM trip_invite_links WHERE id=$1 FOR UPDATE", inviteID); err != nil {
			return err
		}
		if link.Expired(now) {
			return ErrInviteExpired
		}

		var existing models.TripParticipant
		err := tx.GetContext(ctx, &existing,
			"SELECT "+participantColumns+" FROM trip_participants WHERE trip_id=$1 AND user_id=$2 FOR UPDATE",
			link.TripID, userID)
		switch {
		case err == nil && existing.Status == models.ParticipantAccepted:
			outcome = AcceptOutcome{Participant: existing, UsageCount: link.UsageCount}
			return nil
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if link.Exhausted() {
			return ErrInviteExhausted
		}

		var joined models.TripParticipant
		if err := tx.GetContext(ctx, &joined, `
INSERT INTO trip_participants (trip_id, user_id, role, status, invited_by, joined_at)
VALUES ($1, $2, 'member', 'accepted', $3, $4)
ON CONFLICT (trip_id, user_id) DO UPDATE SET status='accepted', joined_at=EXCLUDED.joined_at
RETURNING `+participantColumns, link.TripID, userID, link.CreatedBy, now); err != nil {
			return err
		}

		var usage int
		if err := tx.GetContext(ctx, &usage,
			"UPDATE trip_invite_links SET usage_count = usage_count + 1 WHERE id=$1 RETURNING usage_count", inviteID); err != nil {
			return err
		}

		outcome = AcceptOutcome{Participant: joined, Joined: true, UsageCount: usage}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}
