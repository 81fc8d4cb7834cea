package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/rabbitmq"
	"roamwyth/internal/repositories"
	"roamwyth/internal/telemetry"
)

var flexibleMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

const maxTripNameLength = 120

type TripService struct {
	trips     repositories.TripRepository
	bits      repositories.TripBitRepository
	friends   repositories.FriendRepository
	profiles  repositories.ProfileRepository
	publisher rabbitmq.Publisher
	now       func() time.Time
}

func NewTripService(trips repositories.TripRepository, bits repositories.TripBitRepository, friends repositories.FriendRepository, profiles repositories.ProfileRepository, publisher rabbitmq.Publisher) *TripService {
	return &TripService{
		trips:     trips,
		bits:      bits,
		friends:   friends,
		profiles:  profiles,
		publisher: publisher,
		now:       time.Now,
	}
}

type LocationInput struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	PlaceID string `json:"place_id"`
}

type TripInput struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	StartDate     *time.Time        `json:"start_date"`
	EndDate       *time.Time        `json:"end_date"`
	FlexibleMonth *string           `json:"flexible_month"`
	Visibility    models.Visibility `json:"visibility"`
	Locations     []LocationInput   `json:"locations"`
}

func (s *TripService) Create(ctx context.Context, ownerID uuid.UUID, in TripInput) (*models.Trip, error) {
	if in.Visibility == "" {
		in.Visibility = models.VisibilityFullDetails
	}
	trip := &models.Trip{
		OwnerID:       ownerID,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		FlexibleMonth: in.FlexibleMonth,
		Visibility:    in.Visibility,
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	locations := make([]models.TripLocation, 0, len(in.Locations))
	for _, l := range in.Locations {
		loc, err := locationFromInput(l)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return s.trips.Create(ctx, trip, locations)
}

// Get returns the trip when userID is the owner or an accepted participant.
func (s *TripService) Get(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error) {
	return requireMember(ctx, s.trips, tripID, userID)
}

// TripPatch holds the fields a PATCH may change. Nil means unchanged.
type TripPatch struct {
	Name          *string            `json:"name"`
	Description   *string            `json:"description"`
	StartDate     *time.Time         `json:"start_date"`
	EndDate       *time.Time         `json:"end_date"`
	FlexibleMonth *string            `json:"flexible_month"`
	Visibility    *models.Visibility `json:"visibility"`
	ClearDates    bool               `json:"clear_dates"`
}

func (s *TripService) Update(ctx context.Context, tripID, userID uuid.UUID, patch TripPatch) (*models.Trip, error) {
	trip, err := requireOwner(ctx, s.trips, tripID, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		trip.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		trip.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.ClearDates {
		trip.StartDate, trip.EndDate = nil, nil
	}
	if patch.StartDate != nil {
		trip.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		trip.EndDate = patch.EndDate
	}
	if patch.FlexibleMonth != nil {
		if *patch.FlexibleMonth == "" {
			trip.FlexibleMonth = nil
		} else {
			trip.FlexibleMonth = patch.FlexibleMonth
		}
	}
	if patch.Visibility != nil {
		trip.Visibility = *patch.Visibility
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	updated, err := s.trips.Update(ctx, trip)
	if err != nil {
		return nil, err
	}
	updated.Locations = trip.Locations
	updated.Participants = trip.Participants
	return updated, nil
}

func (s *TripService) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	if _, err := requireOwner(ctx, s.trips, tripID, userID); err != nil {
		return err
	}
	return notFoundAs(s.trips.Delete(ctx, tripID), "trip not found")
}

// Roster lists every trip userID owns or has joined.
func (s *TripService) Roster(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	rows, err := s.trips.ListRoster(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return BuildRoster(rows.Trips, rows.Participants, rows.Locations), nil
}

// FriendRoster is ownerID's roster as seen by viewerID.
func (s *TripService) FriendRoster(ctx context.Context, viewerID, ownerID uuid.UUID) ([]models.Trip, error) {
	if viewerID == ownerID {
		return s.Roster(ctx, ownerID)
	}
	ok, err := s.friends.AreFriends(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(ErrForbidden, "only friends can view this roster")
	}

	trips, err := s.Roster(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		if redacted, ok := ApplyVisibility(trip, viewerID); ok {
			visible = append(visible, redacted)
		}
	}
	return visible, nil
}

func (s *TripService) AddLocation(ctx context.Context, tripID, userID uuid.UUID, in LocationInput) (*models.TripLocation, error) {
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return nil, err
	}
	loc, err := locationFromInput(in)
	if err != nil {
		return nil, err
	}
	loc.TripID = tripID
	return s.trips.AddLocation(ctx, &loc)
}

func (s *TripService) RemoveLocation(ctx context.Context, tripID, locationID, userID uuid.UUID) error {
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return err
	}
	return notFoundAs(s.trips.DeleteLocation(ctx, tripID, locationID), "location not found")
}

// InviteUser adds an invited participant row that the invitee answers with
// Respond.
func (s *TripService) InviteUser(ctx context.Context, tripID, ownerID, inviteeID uuid.UUID) (*models.TripParticipant, error) {
	trip, err := requireOwner(ctx, s.trips, tripID, ownerID)
	if err != nil {
		return nil, err
	}
	if inviteeID == ownerID {
		return nil, newError(ErrBadRequest, "cannot invite yourself")
	}
	if _, err := s.profiles.GetByID(ctx, inviteeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}

	p, err := s.trips.InviteParticipant(ctx, tripID, inviteeID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantExists) {
			return nil, newError(ErrConflict, "user is already on this trip")
		}
		return nil, err
	}

	publishEvent(ctx, s.publisher, telemetry.EventParticipantInvited, telemetry.ParticipantEvent{
		TripID:     trip.ID,
		OwnerID:    trip.OwnerID,
		UserID:     inviteeID,
		ActorID:    ownerID,
		OccurredAt: s.now().UTC(),
	})
	return p, nil
}

func (s *TripService) Respond(ctx context.Context, tripID, userID uuid.UUID, accept bool) (*models.TripParticipant, error) {
	p, err := s.trips.RespondToInvite(ctx, tripID, userID, accept)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "no pending invitation for this trip")
		}
		return nil, err
	}
	if accept {
		trip, err := s.trips.GetByID(ctx, tripID)
		if err == nil {
			publishEvent(ctx, s.publisher, telemetry.EventParticipantJoined, telemetry.ParticipantEvent{
				TripID:     tripID,
				OwnerID:    trip.OwnerID,
				UserID:     userID,
				ActorID:    userID,
				OccurredAt: s.now().UTC(),
			})
		}
	}
	return p, nil
}

// RemoveParticipant lets the owner remove anyone but themselves, and lets a
// member leave.
func (s *TripService) RemoveParticipant(ctx context.Context, tripID, actorID, userID uuid.UUID) error {
	trip, err := loadTrip(ctx, s.trips, tripID)
	if err != nil {
		return err
	}
	if userID == trip.OwnerID {
		return newError(ErrBadRequest, "the owner cannot leave their own trip")
	}
	if actorID != trip.OwnerID && actorID != userID {
		return newError(ErrForbidden, "only the trip owner can remove participants")
	}
	return notFoundAs(s.trips.RemoveParticipant(ctx, tripID, userID), "participant not found")
}

func (s *TripService) ListBits(ctx context.Context, tripID, userID uuid.UUID) ([]models.TripBit, error) {
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return nil, err
	}
	return s.bits.List(ctx, tripID)
}

func (s *TripService) AddBit(ctx context.Context, tripID, userID uuid.UUID, bit models.TripBit) (*models.TripBit, error) {
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return nil, err
	}
	bit.Title = strings.TrimSpace(bit.Title)
	if bit.Title == "" {
		return nil, newError(ErrBadRequest, "title is required")
	}
	if bit.Category == "" {
		bit.Category = models.TripBitOther
	}
	if !bit.Category.Valid() {
		return nil, newError(ErrBadRequest, "invalid category %q", bit.Category)
	}
	if bit.StartsAt != nil && bit.EndsAt != nil && bit.EndsAt.Before(*bit.StartsAt) {
		return nil, newError(ErrBadRequest, "ends_at must not be before starts_at")
	}
	bit.TripID = tripID
	bit.CreatedBy = userID
	return s.bits.Create(ctx, &bit)
}

func (s *TripService) DeleteBit(ctx context.Context, tripID, bitID, userID uuid.UUID) error {
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return err
	}
	return notFoundAs(s.bits.Delete(ctx, tripID, bitID), "trip bit not found")
}

func validateTrip(t *models.Trip) error {
	if t.Name == "" {
		return newError(ErrBadRequest, "name is required")
	}
	if len(t.Name) > maxTripNameLength {
		return newError(ErrBadRequest, "name is too long")
	}
	if !t.Visibility.Valid() {
		return newError(ErrBadRequest, "invalid visibility %q", t.Visibility)
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return newError(ErrBadRequest, "end_date must not be before start_date")
	}
	if t.FlexibleMonth != nil && !flexibleMonthPattern.MatchString(*t.FlexibleMonth) {
		return newError(ErrBadRequest, "flexible_month must look like YYYY-MM")
	}
	return nil
}

func locationFromInput(in LocationInput) (models.TripLocation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.TripLocation{}, newError(ErrBadRequest, "location name is required")
	}
	return models.TripLocation{
		Name:    name,
		Country: strings.TrimSpace(in.Country),
		PlaceID: strings.TrimSpace(in.PlaceID),
	}, nil
}

func loadTrip(ctx context.Context, trips repositories.TripRepository, tripID uuid.UUID) (*models.Trip, error) {
	trip, err := trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "trip not found")
		}
		return nil, fmt.Errorf("load trip: %w", err)
	}
	return trip, nil
}

func requireMember(ctx context.Context, trips repositories.TripRepository, tripID, userID uuid.UUID) (*models.Trip, error) {
	trip, err := loadTrip(ctx, trips, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsMember(userID) {
		return nil, newError(ErrForbidden, "not a member of this trip")
	}
	return trip, nil
}

func requireOwner(ctx context.Context, trips repositories.TripRepository, tripID, userID uuid.UUID) (*models.Trip, error) {
	trip, err := loadTrip(ctx, trips, tripID)
	if err != nil {
		return nil, err
	}
	if trip.OwnerID != userID {
		return nil, newError(ErrForbidden, "only the trip owner can do that")
	}
	return trip, nil
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return newError(ErrNotFound, "%s", msg)
	}
	return err
}
