package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TripBitCategory string

const (
	TripBitFlight    TripBitCategory = "flight"
	TripBitStay      TripBitCategory = "stay"
	TripBitTransport TripBitCategory = "transport"
	TripBitActivity  TripBitCategory = "activity"
	TripBitDining    TripBitCategory = "dining"
	TripBitOther     TripBitCategory = "other"
)

func (c TripBitCategory) Valid() bool {
	switch c {
	case TripBitFlight, TripBitStay, TripBitTransport, TripBitActivity, TripBitDining, TripBitOther:
		return true
	}
	return false
}

// TripBit is an itinerary item attached to a trip.
type TripBit struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TripID    uuid.UUID       `db:"trip_id" json:"trip_id"`
	CreatedBy uuid.UUID       `db:"created_by" json:"created_by"`
	Category  TripBitCategory `db:"category" json:"category"`
	Title     string          `db:"title" json:"title"`
	StartsAt  *time.Time      `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt    *time.Time      `db:"ends_at" json:"ends_at,omitempty"`
	Location  string          `db:"location" json:"location"`
	Details   json.RawMessage `db:"details" json:"details"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
