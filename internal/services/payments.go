package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
)

const (
	SignatureHeader    = "Payment-Signature"
	signatureTolerance = 5 * time.Minute

	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionCanceled = "customer.subscription.deleted"
)

type PaymentService struct {
	profiles  repositories.ProfileRepository
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewPaymentService(profiles repositories.ProfileRepository, secret string) *PaymentService {
	return &PaymentService{
		profiles:  profiles,
		secret:    secret,
		tolerance: signatureTolerance,
		now:       time.Now,
	}
}

type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ClientReferenceID string            `json:"client_reference_id"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type WebhookResult struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	Handled bool      `json:"handled"`
	UserID  uuid.UUID `json:"-"`
	Plan    string    `json:"-"`
}

// HandleWebhook verifies the signature and applies plan changes. Unknown
// event types are acknowledged without side effects.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.secret == "" {
		return nil, newError(ErrServiceUnavailable, "payments are not configured")
	}
	if err := VerifySignature(payload, signature, s.secret, s.now(), s.tolerance); err != nil {
		return nil, newError(ErrBadRequest, "invalid signature")
	}

	var event paymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, newError(ErrBadRequest, "invalid event payload")
	}
	result := &WebhookResult{EventID: event.ID, Type: event.Type}

	var (
		rawUserID string
		plan      models.Plan
	)
	switch event.Type {
	case EventCheckoutCompleted:
		rawUserID, plan = event.Data.Object.ClientReferenceID, models.PlanPro
	case EventSubscriptionCanceled:
		rawUserID, plan = event.Data.Object.Metadata["user_id"], models.PlanFree
	default:
		return result, nil
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, newError(ErrBadRequest, "event does not reference a user")
	}
	if err := s.profiles.SetPlan(ctx, userID, plan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("warning: payment event %s references unknown user %s", event.ID, userID)
			return result, nil
		}
		return nil, fmt.Errorf("set plan: %w", err)
	}

	result.Handled = true
	result.UserID = userID
	result.Plan = string(plan)
	return result, nil
}

// VerifySignature checks a "t=<unix>,v1=<hex>" header against an HMAC-SHA256
// of "<t>.<payload>". Any v1 entry may match.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return errors.New("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.New("malformed signature timestamp")
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return errors.New("signature timestamp outside tolerance")
	}

	expected := ComputeSignature(payload, timestamp, secret)
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return errors.New("signature mismatch")
}

func ComputeSignature(payload []byte, timestamp, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
