package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
)

const (
	defaultRecommendationCount = 5
	maxRecommendationCount     = 10
	maxBookingTextLength       = 20000
	maxBookingImageBytes       = 8 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

const bookingSystemPrompt = `You extract travel bookings from confirmations.
Reply with JSON only, shaped as {"bookings":[{"category":"flight|stay|transport|activity|dining|other","title":"","starts_at":"RFC3339 or empty","ends_at":"RFC3339 or empty","location":"","confirmation_code":"","provider":"","notes":""}]}.
Use an empty list when nothing looks like a booking.`

const recommendationSystemPrompt = `You are a travel guide. Reply with JSON only, shaped as
{"recommendations":[{"name":"","category":"food|stay|activity|nightlife|shopping|sight|other","description":"","city":"","country":""}]}.`

type AIService struct {
	llm     *LLMClient
	scraper *MetadataScraper
	trips   repositories.TripRepository
}

func NewAIService(llm *LLMClient, scraper *MetadataScraper, trips repositories.TripRepository) *AIService {
	return &AIService{llm: llm, scraper: scraper, trips: trips}
}

type BookingInput struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	URL         string `json:"url"`
}

type ParsedBooking struct {
	Category         models.TripBitCategory `json:"category"`
	Title            string                 `json:"title"`
	StartsAt         *time.Time             `json:"starts_at,omitempty"`
	EndsAt           *time.Time             `json:"ends_at,omitempty"`
	Location         string                 `json:"location"`
	ConfirmationCode string                 `json:"confirmation_code"`
	Provider         string                 `json:"provider"`
	Notes            string                 `json:"notes"`
}

type rawBooking struct {
	Category         string `json:"category"`
	Title            string `json:"title"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	Location         string `json:"location"`
	ConfirmationCode string `json:"confirmation_code"`
	Provider         string `json:"provider"`
	Notes            string `json:"notes"`
}

// ParseBooking turns a pasted confirmation, a screenshot or a booking page
// into structured itinerary items.
func (s *AIService) ParseBooking(ctx context.Context, in BookingInput) ([]ParsedBooking, error) {
	var messages []ChatMessage
	system := textMessage("system", bookingSystemPrompt)

	switch {
	case strings.TrimSpace(in.Text) != "":
		text := strings.TrimSpace(in.Text)
		if utf8.RuneCountInString(text) > maxBookingTextLength {
			return nil, newError(ErrBadRequest, "text is too long")
		}
		messages = []ChatMessage{system, textMessage("user", text)}
	case in.ImageBase64 != "":
		if !allowedImageTypes[in.MimeType] {
			return nil, newError(ErrBadRequest, "unsupported mime_type %q", in.MimeType)
		}
		decoded, err := base64.StdEncoding.DecodeString(in.ImageBase64)
		if err != nil {
			return nil, newError(ErrBadRequest, "image_base64 is not valid base64")
		}
		if len(decoded) > maxBookingImageBytes {
			return nil, newError(ErrBadRequest, "image is too large")
		}
		messages = []ChatMessage{system, imageMessage("Extract the bookings in this image.", in.MimeType, in.ImageBase64)}
	case strings.TrimSpace(in.URL) != "":
		if s.scraper == nil || !s.llm.Configured() {
			return nil, newError(ErrServiceUnavailable, "link parsing is not available")
		}
		page, err := s.scraper.Fetch(ctx, strings.TrimSpace(in.URL))
		if err != nil {
			return nil, err
		}
		prompt := fmt.Sprintf("Booking page %s\nTitle: %s\nDescription: %s\n\n%s", page.URL, page.Title, page.Description, page.Text)
		messages = []ChatMessage{system, textMessage("user", prompt)}
	default:
		return nil, newError(ErrBadRequest, "one of text, image_base64 or url is required")
	}

	var raw json.RawMessage
	if err := s.llm.CompleteJSON(ctx, messages, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[rawBooking](raw, "bookings")
	if err != nil {
		return nil, err
	}

	bookings := make([]ParsedBooking, 0, len(items))
	for _, b := range items {
		if strings.TrimSpace(b.Title) == "" {
			continue
		}
		category := models.TripBitCategory(strings.ToLower(strings.TrimSpace(b.Category)))
		if !category.Valid() {
			category = models.TripBitOther
		}
		bookings = append(bookings, ParsedBooking{
			Category:         category,
			Title:            strings.TrimSpace(b.Title),
			StartsAt:         parseLooseTime(b.StartsAt),
			EndsAt:           parseLooseTime(b.EndsAt),
			Location:         strings.TrimSpace(b.Location),
			ConfirmationCode: strings.TrimSpace(b.ConfirmationCode),
			Provider:         strings.TrimSpace(b.Provider),
			Notes:            strings.TrimSpace(b.Notes),
		})
	}
	return bookings, nil
}

type RecommendationRequest struct {
	Destination string     `json:"destination"`
	Interests   []string   `json:"interests"`
	Count       int        `json:"count"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type AIRecommendation struct {
	Name        string                        `json:"name"`
	Category    models.RecommendationCategory `json:"category"`
	Description string                        `json:"description"`
	City        string                        `json:"city"`
	Country     string                        `json:"country"`
}

func (s *AIService) Recommend(ctx context.Context, req RecommendationRequest) ([]AIRecommendation, error) {
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Destination == "" {
		return nil, newError(ErrBadRequest, "destination is required")
	}
	switch {
	case req.Count == 0:
		req.Count = defaultRecommendationCount
	case req.Count < 1 || req.Count > maxRecommendationCount:
		return nil, newError(ErrBadRequest, "count must be between 1 and %d", maxRecommendationCount)
	}

	messages := []ChatMessage{
		textMessage("system", recommendationSystemPrompt),
		textMessage("user", BuildRecommendationPrompt(req)),
	}
	var raw json.RawMessage
	if err := s.llm.CompleteJSON(ctx, messages, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[AIRecommendation](raw, "recommendations")
	if err != nil {
		return nil, err
	}

	out := make([]AIRecommendation, 0, len(items))
	for _, r := range items {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			continue
		}
		r.Category = models.RecommendationCategory(strings.ToLower(string(r.Category)))
		if !r.Category.Valid() {
			r.Category = models.RecommendationOther
		}
		out = append(out, r)
		if len(out) == req.Count {
			break
		}
	}
	return out, nil
}

// RecommendForTrip builds the request from the trip's own locations and dates.
func (s *AIService) RecommendForTrip(ctx context.Context, tripID, userID uuid.UUID, interests []string, count int) ([]AIRecommendation, error) {
	trip, err := requireMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return nil, err
	}
	destination := destinationSummary(trip.Locations, nil)
	if destination == "" {
		return nil, newError(ErrBadRequest, "trip has no locations yet")
	}
	return s.Recommend(ctx, RecommendationRequest{
		Destination: destination,
		Interests:   interests,
		Count:       count,
		StartDate:   trip.StartDate,
		EndDate:     trip.EndDate,
	})
}

// BuildRecommendationPrompt renders the request as the user turn. The request
// itself is embedded as JSON so the model sees exact values.
func BuildRecommendationPrompt(req RecommendationRequest) string {
	encoded, _ := json.Marshal(req)
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d places to visit in %s.", req.Count, req.Destination)
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, " The travellers enjoy %s.", strings.Join(req.Interests, ", "))
	}
	if req.StartDate != nil {
		fmt.Fprintf(&b, " They arrive on %s.", req.StartDate.Format("2006-01-02"))
	}
	b.WriteString("\nRequest:\n")
	b.Write(encoded)
	return b.String()
}

// decodeList accepts {"<key>": [...]}, a bare array, or a single object.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, newError(ErrUpstreamUnparseable, "AI response did not match the expected shape")
		}
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, newError(ErrUpstreamUnparseable, "AI response did not match the expected shape")
	}
	if inner, ok := wrapped[key]; ok {
		var items []T
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, newError(ErrUpstreamUnparseable, "AI response did not match the expected shape")
		}
		return items, nil
	}

	var single T
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, newError(ErrUpstreamUnparseable, "AI response did not match the expected shape")
	}
	return []T{single}, nil
}

var looseTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseLooseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range looseTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
