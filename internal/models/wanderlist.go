package models

import (
	"time"

	"github.com/google/uuid"
)

type WanderlistItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	City      string    `db:"city" json:"city"`
	Country   string    `db:"country" json:"country"`
	PlaceID   string    `db:"place_id" json:"place_id,omitempty"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RecommendationCategory string

const (
	RecommendationFood      RecommendationCategory = "food"
	RecommendationStay      RecommendationCategory = "stay"
	RecommendationActivity  RecommendationCategory = "activity"
	RecommendationNightlife RecommendationCategory = "nightlife"
	RecommendationShopping  RecommendationCategory = "shopping"
	RecommendationSight     RecommendationCategory = "sight"
	RecommendationOther     RecommendationCategory = "other"
)

func (c RecommendationCategory) Valid() bool {
	switch c {
	case RecommendationFood, RecommendationStay, RecommendationActivity, RecommendationNightlife,
		RecommendationShopping, RecommendationSight, RecommendationOther:
		return true
	}
	return false
}

type SharedRecommendation struct {
	ID        uuid.UUID              `db:"id" json:"id"`
	UserID    uuid.UUID              `db:"user_id" json:"user_id"`
	TripID    *uuid.UUID             `db:"trip_id" json:"trip_id,omitempty"`
	Name      string                 `db:"name" json:"name"`
	City      string                 `db:"city" json:"city"`
	Country   string                 `db:"country" json:"country"`
	PlaceID   string                 `db:"place_id" json:"place_id,omitempty"`
	Category  RecommendationCategory `db:"category" json:"category"`
	Notes     string                 `db:"notes" json:"notes"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
