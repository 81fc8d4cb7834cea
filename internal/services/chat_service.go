package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/rabbitmq"
	"roamwyth/internal/repositories"
	"roamwyth/internal/telemetry"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 100
	maxMessageLength   = 4000
)

type ChatService struct {
	trips     repositories.TripRepository
	messages  repositories.MessageRepository
	publisher rabbitmq.Publisher
	now       func() time.Time
}

func NewChatService(trips repositories.TripRepository, messages repositories.MessageRepository, publisher rabbitmq.Publisher) *ChatService {
	return &ChatService{trips: trips, messages: messages, publisher: publisher, now: time.Now}
}

func (s *ChatService) Send(ctx context.Context, tripID, senderID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, newError(ErrBadRequest, "message body is required")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, newError(ErrBadRequest, "message is too long")
	}
	trip, err := requireMember(ctx, s.trips, tripID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, tripID, senderID, body)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	// The sender has seen their own message.
	if err := s.messages.MarkRead(ctx, tripID, senderID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	recipients := make([]uuid.UUID, 0, len(trip.Participants)+1)
	if trip.OwnerID != senderID {
		recipients = append(recipients, trip.OwnerID)
	}
	for _, p := range trip.Participants {
		if p.Status == models.ParticipantAccepted && p.UserID != senderID && p.UserID != trip.OwnerID {
			recipients = append(recipients, p.UserID)
		}
	}
	publishEvent(ctx, s.publisher, telemetry.EventMessageCreated, telemetry.MessageEvent{
		MessageID:  msg.ID,
		TripID:     tripID,
		SenderID:   senderID,
		Recipients: recipients,
		OccurredAt: msg.CreatedAt.UTC(),
	})
	return msg, nil
}

// List pages backwards through a trip's messages, newest first.
func (s *ChatService) List(ctx context.Context, tripID, userID uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return nil, err
	}
	return s.messages.List(ctx, tripID, before, limit)
}

func (s *ChatService) MarkRead(ctx context.Context, tripID, userID uuid.UUID) error {
	if _, err := requireMember(ctx, s.trips, tripID, userID); err != nil {
		return err
	}
	return s.messages.MarkRead(ctx, tripID, userID, s.now().UTC())
}

type UnreadSummary struct {
	Trips []models.UnreadCount `json:"trips"`
	Total int                  `json:"total"`
}

func (s *ChatService) Unread(ctx context.Context, userID uuid.UUID) (*UnreadSummary, error) {
	counts, err := s.messages.UnreadCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}
	summary := &UnreadSummary{Trips: counts}
	for _, c := range counts {
		summary.Total += c.Count
	}
	return summary, nil
}
