package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/microcosm-cc/bluemonday"

	"roamwyth/internal/mailer"
	"roamwyth/internal/models"
	"roamwyth/internal/rabbitmq"
	"roamwyth/internal/repositories"
	"roamwyth/internal/telemetry"
)

var inviteCodePattern = regexp.MustCompile(`^[a-z0-9-]{6,80}$`)

const maxSlugLength = 24

type InviteService struct {
	invites   repositories.InviteRepository
	trips     repositories.TripRepository
	profiles  repositories.ProfileRepository
	publisher rabbitmq.Publisher
	mail      mailer.Sender
	appURL    string
	now       func() time.Time
}

func NewInviteService(invites repositories.InviteRepository, trips repositories.TripRepository, profiles repositories.ProfileRepository, publisher rabbitmq.Publisher, mail mailer.Sender, appURL string) *InviteService {
	return &InviteService{
		invites:   invites,
		trips:     trips,
		profiles:  profiles,
		publisher: publisher,
		mail:      mail,
		appURL:    strings.TrimRight(appURL, "/"),
		now:       time.Now,
	}
}

type AcceptResult struct {
	TripID        uuid.UUID                `json:"trip_id"`
	Status        models.ParticipantStatus `json:"status"`
	AlreadyMember bool                     `json:"already_member"`
}

// Accept joins userID to the trip behind code. Accepting twice is a no-op.
func (s *InviteService) Accept(ctx context.Context, code string, userID uuid.UUID) (*AcceptResult, error) {
	if userID == uuid.Nil {
		return nil, newError(ErrUnauthorized, "unauthorized")
	}
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	link, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if link.Expired(now) {
		return nil, newError(ErrExpired, "invite link has expired")
	}

	trip, err := s.trips.GetByID(ctx, link.TripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "invite not found")
		}
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if trip.OwnerID == userID {
		return &AcceptResult{TripID: trip.ID, Status: models.ParticipantAccepted, AlreadyMember: true}, nil
	}

	outcome, err := s.invites.Accept(ctx, link.ID, userID, now)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, newError(ErrNotFound, "invite not found")
		case errors.Is(err, repositories.ErrInviteExpired):
			return nil, newError(ErrExpired, "invite link has expired")
		case errors.Is(err, repositories.ErrInviteExhausted):
			return nil, newError(ErrExpired, "invite link has reached its usage limit")
		}
		return nil, fmt.Errorf("accept invite: %w", err)
	}

	if outcome.Joined {
		inviteID := link.ID
		publishEvent(ctx, s.publisher, telemetry.EventParticipantJoined, telemetry.ParticipantEvent{
			TripID:     trip.ID,
			OwnerID:    trip.OwnerID,
			UserID:     userID,
			ActorID:    userID,
			InviteID:   &inviteID,
			OccurredAt: now.UTC(),
		})
	}

	return &AcceptResult{
		TripID:        trip.ID,
		Status:        outcome.Participant.Status,
		AlreadyMember: !outcome.Joined,
	}, nil
}

type CreateLinkOptions struct {
	ExpiresIn   *time.Duration
	MaxUses     *int
	LocationIDs []uuid.UUID
	TripBitIDs  []uuid.UUID
}

func (s *InviteService) CreateLink(ctx context.Context, tripID, userID uuid.UUID, opts CreateLinkOptions) (*models.InviteLink, error) {
	trip, err := requireOwner(ctx, s.trips, tripID, userID)
	if err != nil {
		return nil, err
	}
	if opts.MaxUses != nil && *opts.MaxUses < 1 {
		return nil, newError(ErrBadRequest, "max_uses must be at least 1")
	}
	if opts.ExpiresIn != nil && *opts.ExpiresIn <= 0 {
		return nil, newError(ErrBadRequest, "expires_in must be positive")
	}

	known := make(map[uuid.UUID]bool, len(trip.Locations))
	for _, loc := range trip.Locations {
		known[loc.ID] = true
	}
	for _, id := range opts.LocationIDs {
		if !known[id] {
			return nil, newError(ErrBadRequest, "location %s does not belong to this trip", id)
		}
	}

	link := &models.InviteLink{
		TripID:      trip.ID,
		CreatedBy:   userID,
		MaxUses:     opts.MaxUses,
		LocationIDs: pq.StringArray(uuidsToStrings(opts.LocationIDs)),
		TripBitIDs:  pq.StringArray(uuidsToStrings(opts.TripBitIDs)),
	}
	if opts.ExpiresIn != nil {
		expires := s.now().Add(*opts.ExpiresIn).UTC()
		link.ExpiresAt = &expires
	}

	// Codes end up in shared URLs, so hidden trips do not lend them their name.
	label := trip.Name
	if shown, ok := ApplyVisibility(*trip, uuid.Nil); !ok || shown.Name != trip.Name {
		label = "trip"
	}

	for attempt := 0; attempt < 3; attempt++ {
		link.Code = newInviteCode(label)
		created, err := s.invites.Create(ctx, link)
		if errors.Is(err, repositories.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create invite: %w", err)
		}
		return created, nil
	}
	return nil, errors.New("could not allocate a unique invite code")
}

func (s *InviteService) ListLinks(ctx context.Context, tripID, userID uuid.UUID) ([]models.InviteLink, error) {
	if _, err := requireOwner(ctx, s.trips, tripID, userID); err != nil {
		return nil, err
	}
	return s.invites.ListByTrip(ctx, tripID)
}

func (s *InviteService) RevokeLink(ctx context.Context, tripID, inviteID, userID uuid.UUID) error {
	if _, err := requireOwner(ctx, s.trips, tripID, userID); err != nil {
		return err
	}
	if err := s.invites.Delete(ctx, tripID, inviteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(ErrNotFound, "invite not found")
		}
		return err
	}
	return nil
}

type InvitePreview struct {
	Code          string     `json:"code"`
	TripID        uuid.UUID  `json:"trip_id"`
	TripName      string     `json:"trip_name"`
	Destination   string     `json:"destination"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	FlexibleMonth *string    `json:"flexible_month,omitempty"`
	OwnerUsername string     `json:"owner_username"`
	Expired       bool       `json:"expired"`
	JoinURL       string     `json:"join_url"`
}

// Preview describes the trip behind an invite to someone who has not joined.
// An expired link still previews so the landing page can explain why it fails.
func (s *InviteService) Preview(ctx context.Context, code string) (*InvitePreview, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	link, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	trip, err := s.trips.GetByID(ctx, link.TripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "invite not found")
		}
		return nil, fmt.Errorf("load trip: %w", err)
	}

	// The viewer is anonymous, so the trip's visibility applies in full.
	// only_me trips still preview for the link holder, with nothing but a placeholder name.
	shown, ok := ApplyVisibility(*trip, uuid.Nil)
	if !ok {
		shown = models.Trip{ID: trip.ID, OwnerID: trip.OwnerID, Name: busyTripName}
	}

	preview := &InvitePreview{
		Code:          link.Code,
		TripID:        trip.ID,
		TripName:      shown.Name,
		Destination:   destinationSummary(shown.Locations, link.LocationIDs),
		StartDate:     shown.StartDate,
		EndDate:       shown.EndDate,
		FlexibleMonth: shown.FlexibleMonth,
		Expired:       link.Expired(s.now()) || link.Exhausted(),
		JoinURL:       s.JoinURL(link.Code),
	}
	if owner, err := s.profiles.GetByID(ctx, trip.OwnerID); err == nil {
		preview.OwnerUsername = owner.Username
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	return preview, nil
}

func (s *InviteService) JoinURL(code string) string {
	return s.appURL + "/join/" + code
}

func (s *InviteService) PreviewURL(code string) string {
	return s.appURL + "/i/" + code
}

var inviteEmailTemplate = template.Must(template.New("invite").Parse(`<p>{{.Inviter}} invited you to join <strong>{{.TripName}}</strong>{{if .Destination}} to {{.Destination}}{{end}}.</p>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<p><a href="{{.Link}}">Join the trip</a></p>`))

// EmailLink sends the invite link to address on behalf of the trip owner.
func (s *InviteService) EmailLink(ctx context.Context, tripID, inviteID, userID uuid.UUID, address string) error {
	if s.mail == nil {
		return newError(ErrServiceUnavailable, "email delivery is not configured")
	}
	address, err := mailer.NormalizeAddress(address)
	if err != nil {
		return newError(ErrBadRequest, "invalid email address")
	}
	trip, err := requireOwner(ctx, s.trips, tripID, userID)
	if err != nil {
		return err
	}

	links, err := s.invites.ListByTrip(ctx, tripID)
	if err != nil {
		return err
	}
	var link *models.InviteLink
	for i := range links {
		if links[i].ID == inviteID {
			link = &links[i]
			break
		}
	}
	if link == nil {
		return newError(ErrNotFound, "invite not found")
	}
	if link.Expired(s.now()) {
		return newError(ErrExpired, "invite link has expired")
	}

	inviter := "A friend"
	if owner, err := s.profiles.GetByID(ctx, userID); err == nil && owner.Username != "" {
		inviter = owner.Username
	}

	var body bytes.Buffer
	if err := inviteEmailTemplate.Execute(&body, map[string]any{
		"Inviter":     inviter,
		"TripName":    trip.Name,
		"Destination": destinationSummary(trip.Locations, link.LocationIDs),
		"Description": trip.Description,
		"Link":        s.PreviewURL(link.Code),
	}); err != nil {
		return err
	}

	html := bluemonday.UGCPolicy().Sanitize(body.String())
	if err := s.mail.Send(address, fmt.Sprintf("Join %s on roamwyth", trip.Name), html); err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			return newError(ErrServiceUnavailable, "email delivery is not configured")
		}
		return newError(ErrBadGateway, "failed to send email")
	}
	return nil
}

func (s *InviteService) lookup(ctx context.Context, code string) (*models.InviteLink, error) {
	link, err := s.invites.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "invite not found")
		}
		return nil, fmt.Errorf("lookup invite: %w", err)
	}
	return link, nil
}

func normalizeCode(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", newError(ErrBadRequest, "invite code is required")
	}
	if !inviteCodePattern.MatchString(code) {
		return "", newError(ErrBadRequest, "invalid invite code")
	}
	return code, nil
}

func newInviteCode(tripName string) string {
	base := slug.Make(tripName)
	if len(base) > maxSlugLength {
		base = strings.Trim(base[:maxSlugLength], "-")
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		base = "trip"
	}
	return base + "-" + token
}

// destinationSummary joins location names, restricted to subset when the
// invite only shares some of them.
func destinationSummary(locations []models.TripLocation, subset []string) string {
	allowed := make(map[string]bool, len(subset))
	for _, id := range subset {
		allowed[id] = true
	}
	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		if len(allowed) > 0 && !allowed[loc.ID.String()] {
			continue
		}
		name := loc.Name
		if loc.Country != "" {
			name += ", " + loc.Country
		}
		names = append(names, name)
	}
	return strings.Join(names, " · ")
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
