package services

import (
	"sort"

	"github.com/google/uuid"

	"roamwyth/internal/models"
)

// BuildRoster stitches participants and locations onto their trips, drops
// duplicate trip ids and orders the result by start date then name. Trips
// without a start date sort last.
func BuildRoster(trips []models.Trip, participants []models.TripParticipant, locations []models.TripLocation) []models.Trip {
	byID := make(map[uuid.UUID]int, len(trips))
	roster := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		if _, seen := byID[t.ID]; seen {
			continue
		}
		t.Locations = []models.TripLocation{}
		t.Participants = []models.TripParticipant{}
		byID[t.ID] = len(roster)
		roster = append(roster, t)
	}

	for _, p := range participants {
		if i, ok := byID[p.TripID]; ok {
			roster[i].Participants = append(roster[i].Participants, p)
		}
	}
	for _, l := range locations {
		if i, ok := byID[l.TripID]; ok {
			roster[i].Locations = append(roster[i].Locations, l)
		}
	}
	for i := range roster {
		sort.SliceStable(roster[i].Locations, func(a, b int) bool {
			return roster[i].Locations[a].Position < roster[i].Locations[b].Position
		})
	}

	sort.SliceStable(roster, func(a, b int) bool {
		ta, tb := roster[a], roster[b]
		switch {
		case ta.StartDate == nil && tb.StartDate != nil:
			return false
		case ta.StartDate != nil && tb.StartDate == nil:
			return true
		case ta.StartDate != nil && !ta.StartDate.Equal(*tb.StartDate):
			return ta.StartDate.Before(*tb.StartDate)
		}
		return ta.Name < tb.Name
	})
	return roster
}

const busyTripName = "Busy"

// ApplyVisibility redacts trip for viewerID. The second result is false when
// the trip must not be shown at all. Members always see the full trip.
func ApplyVisibility(trip models.Trip, viewerID uuid.UUID) (models.Trip, bool) {
	if trip.IsMember(viewerID) {
		return trip, true
	}

	switch trip.Visibility {
	case models.VisibilityFullDetails:
		return trip, true
	case models.VisibilityDatesOnly:
		trip.Description = ""
		trip.Locations = []models.TripLocation{}
	case models.VisibilityLocationOnly:
		trip.Description = ""
		trip.StartDate, trip.EndDate, trip.FlexibleMonth = nil, nil, nil
	case models.VisibilityBusyOnly:
		trip.Name = busyTripName
		trip.Description = ""
		trip.Locations = []models.TripLocation{}
	default:
		return models.Trip{}, false
	}
	trip.Participants = []models.TripParticipant{}
	return trip, true
}
