package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls how much of a trip non-members can see.
type Visibility string

const (
	VisibilityFullDetails  Visibility = "full_details"
	VisibilityDatesOnly    Visibility = "dates_only"
	VisibilityLocationOnly Visibility = "location_only"
	VisibilityBusyOnly     Visibility = "busy_only"
	VisibilityOnlyMe       Visibility = "only_me"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityFullDetails, VisibilityDatesOnly, VisibilityLocationOnly, VisibilityBusyOnly, VisibilityOnlyMe:
		return true
	}
	return false
}

type Trip struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	OwnerID       uuid.UUID  `db:"owner_id" json:"owner_id"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description"`
	StartDate     *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time `db:"end_date" json:"end_date,omitempty"`
	FlexibleMonth *string    `db:"flexible_month" json:"flexible_month,omitempty"`
	Visibility    Visibility `db:"visibility" json:"visibility"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

	Locations    []TripLocation    `db:"-" json:"locations"`
	Participants []TripParticipant `db:"-" json:"participants"`
}

type TripLocation struct {
	ID       uuid.UUID `db:"id" json:"id"`
	TripID   uuid.UUID `db:"trip_id" json:"trip_id"`
	Name     string    `db:"name" json:"name"`
	Country  string    `db:"country" json:"country"`
	PlaceID  string    `db:"place_id" json:"place_id,omitempty"`
	Position int       `db:"position" json:"position"`
}

type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "owner"
	RoleMember ParticipantRole = "member"
)

type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantInvited  ParticipantStatus = "invited"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantDeclined ParticipantStatus = "declined"
)

type TripParticipant struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	TripID    uuid.UUID         `db:"trip_id" json:"trip_id"`
	UserID    uuid.UUID         `db:"user_id" json:"user_id"`
	Role      ParticipantRole   `db:"role" json:"role"`
	Status    ParticipantStatus `db:"status" json:"status"`
	InvitedBy *uuid.UUID        `db:"invited_by" json:"invited_by,omitempty"`
	JoinedAt  *time.Time        `db:"joined_at" json:"joined_at,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// IsMember reports whether userID owns the trip or has accepted a place on it.
func (t Trip) IsMember(userID uuid.UUID) bool {
	if t.OwnerID == userID {
		return true
	}
	for _, p := range t.Participants {
		if p.UserID == userID && p.Status == ParticipantAccepted {
			return true
		}
	}
	return false
}
