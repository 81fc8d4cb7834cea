package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"roamwyth/internal/models"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestBuildRosterStitchesAndOrders(t *testing.T) {
	early := models.Trip{ID: uuid.New(), Name: "Porto", StartDate: date("2026-05-01")}
	late := models.Trip{ID: uuid.New(), Name: "Oslo", StartDate: date("2026-09-01")}
	undatedB := models.Trip{ID: uuid.New(), Name: "Bali"}
	undatedA := models.Trip{ID: uuid.New(), Name: "Accra"}
	sameDay := models.Trip{ID: uuid.New(), Name: "Lyon", StartDate: date("2026-05-01")}

	trips := []models.Trip{undatedB, late, early, undatedA, sameDay, early}
	participants := []models.TripParticipant{
		{TripID: early.ID, UserID: uuid.New(), Status: models.ParticipantAccepted},
		{TripID: uuid.New(), UserID: uuid.New()},
	}
	locations := []models.TripLocation{
		{TripID: late.ID, Name: "Bergen", Position: 1},
		{TripID: late.ID, Name: "Oslo", Position: 0},
	}

	roster := BuildRoster(trips, participants, locations)

	names := make([]string, len(roster))
	for i, tr := range roster {
		names[i] = tr.Name
	}
	require.Equal(t, []string{"Lyon", "Porto", "Oslo", "Accra", "Bali"}, names)

	require.Len(t, roster[1].Participants, 1)
	require.Equal(t, []string{"Oslo", "Bergen"}, []string{roster[2].Locations[0].Name, roster[2].Locations[1].Name})
	require.NotNil(t, roster[3].Locations)
	require.NotNil(t, roster[3].Participants)
}

func TestBuildRosterEmpty(t *testing.T) {
	require.Empty(t, BuildRoster(nil, nil, nil))
}

func TestApplyVisibility(t *testing.T) {
	owner, viewer := uuid.New(), uuid.New()
	month := "2026-07"
	base := models.Trip{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          "Kyoto",
		Description:   "temples",
		StartDate:     date("2026-07-01"),
		EndDate:       date("2026-07-10"),
		FlexibleMonth: &month,
		Locations:     []models.TripLocation{{Name: "Kyoto"}},
		Participants:  []models.TripParticipant{{UserID: uuid.New(), Status: models.ParticipantAccepted}},
	}

	full := base
	full.Visibility = models.VisibilityFullDetails
	got, ok := ApplyVisibility(full, viewer)
	require.True(t, ok)
	require.Equal(t, "temples", got.Description)
	require.Len(t, got.Locations, 1)

	datesOnly := base
	datesOnly.Visibility = models.VisibilityDatesOnly
	got, ok = ApplyVisibility(datesOnly, viewer)
	require.True(t, ok)
	require.Equal(t, "Kyoto", got.Name)
	require.NotNil(t, got.StartDate)
	require.Empty(t, got.Locations)
	require.Empty(t, got.Participants)

	locationOnly := base
	locationOnly.Visibility = models.VisibilityLocationOnly
	got, ok = ApplyVisibility(locationOnly, viewer)
	require.True(t, ok)
	require.Nil(t, got.StartDate)
	require.Nil(t, got.EndDate)
	require.Nil(t, got.FlexibleMonth)
	require.Len(t, got.Locations, 1)

	busy := base
	busy.Visibility = models.VisibilityBusyOnly
	got, ok = ApplyVisibility(busy, viewer)
	require.True(t, ok)
	require.Equal(t, "Busy", got.Name)
	require.Empty(t, got.Description)
	require.NotNil(t, got.EndDate)
	require.Empty(t, got.Locations)

	hidden := base
	hidden.Visibility = models.VisibilityOnlyMe
	_, ok = ApplyVisibility(hidden, viewer)
	require.False(t, ok)

	// Redaction never leaks back into the caller's trip.
	require.Len(t, base.Locations, 1)
}

func TestApplyVisibilityShowsMembersEverything(t *testing.T) {
	owner, member := uuid.New(), uuid.New()
	trip := models.Trip{
		OwnerID:      owner,
		Name:         "Secret",
		Visibility:   models.VisibilityOnlyMe,
		Participants: []models.TripParticipant{{UserID: member, Status: models.ParticipantAccepted}},
	}

	got, ok := ApplyVisibility(trip, member)
	require.True(t, ok)
	require.Equal(t, "Secret", got.Name)
}
