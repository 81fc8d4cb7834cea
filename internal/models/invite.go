package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type InviteLink struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	TripID      uuid.UUID      `db:"trip_id" json:"trip_id"`
	Code        string         `db:"code" json:"code"`
	CreatedBy   uuid.UUID      `db:"created_by" json:"created_by"`
	ExpiresAt   *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
	MaxUses     *int           `db:"max_uses" json:"max_uses,omitempty"`
	UsageCount  int            `db:"usage_count" json:"usage_count"`
	LocationIDs pq.StringArray `db:"location_ids" json:"location_ids"`
	TripBitIDs  pq.StringArray `db:"tripbit_ids" json:"tripbit_ids"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Expired compares against wall-clock time supplied by the caller.
func (l InviteLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

func (l InviteLink) Exhausted() bool {
	return l.MaxUses != nil && l.UsageCount >= *l.MaxUses
}
