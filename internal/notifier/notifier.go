// Package notifier turns domain events from the events exchange into
// per-user notification rows.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
	"roamwyth/internal/telemetry"
)

// Bindings are the routing key patterns the notification queue listens on.
var Bindings = []string{"friendship.*", "trip.#"}

type Notifier struct {
	notifications repositories.NotificationRepository
}

func New(notifications repositories.NotificationRepository) *Notifier {
	return &Notifier{notifications: notifications}
}

// Handle matches rabbitmq.HandlerFunc. Unknown routing keys are acknowledged
// and ignored; a malformed body is returned as an error so it is dropped.
func (n *Notifier) Handle(ctx context.Context, routingKey string, body []byte) error {
	rows, err := notificationsFor(routingKey, body)
	if err != nil {
		return err
	}
	for i := range rows {
		if _, err := n.notifications.Create(ctx, &rows[i]); err != nil {
			return fmt.Errorf("create %s notification: %w", rows[i].Type, err)
		}
	}
	return nil
}

func notificationsFor(routingKey string, body []byte) ([]models.Notification, error) {
	switch routingKey {
	case telemetry.EventFriendshipRequested, telemetry.EventFriendshipAccepted:
		var e telemetry.FriendshipEvent
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		n := models.Notification{FriendshipID: ptr(e.FriendshipID)}
		if routingKey == telemetry.EventFriendshipRequested {
			n.Type = models.NotificationFriendRequest
			n.UserID = e.AddresseeID
			n.FromUserID = ptr(e.RequesterID)
		} else {
			n.Type = models.NotificationFriendAccepted
			n.UserID = e.RequesterID
			n.FromUserID = ptr(e.AddresseeID)
		}
		return []models.Notification{n}, nil

	case telemetry.EventParticipantInvited:
		var e telemetry.ParticipantEvent
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		return []models.Notification{{
			UserID:     e.UserID,
			Type:       models.NotificationTripInvite,
			FromUserID: ptr(e.ActorID),
			TripID:     ptr(e.TripID),
		}}, nil

	case telemetry.EventParticipantJoined:
		var e telemetry.ParticipantEvent
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		if e.UserID == e.OwnerID {
			return nil, nil
		}
		return []models.Notification{{
			UserID:     e.OwnerID,
			Type:       models.NotificationTripJoined,
			FromUserID: ptr(e.UserID),
			TripID:     ptr(e.TripID),
		}}, nil

	case telemetry.EventMessageCreated:
		var e telemetry.MessageEvent
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		rows := make([]models.Notification, 0, len(e.Recipients))
		for _, to := range e.Recipients {
			if to == e.SenderID {
				continue
			}
			rows = append(rows, models.Notification{
				UserID:     to,
				Type:       models.NotificationTripMessage,
				FromUserID: ptr(e.SenderID),
				TripID:     ptr(e.TripID),
			})
		}
		return rows, nil
	}

	log.Printf("notifier: ignoring %s", routingKey)
	return nil, nil
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
