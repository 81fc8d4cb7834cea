package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mock.Mock
}

func (p *capturePublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := p.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (p *capturePublisher) Close() error { return nil }

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(capturePublisher)
	emitter := NewAuditEmitter(pub, "roamwyth", "test")
	emitter.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	userID := uuid.New()

	var got Envelope
	pub.On("Publish", mock.Anything, AuditRoutingKey, mock.AnythingOfType("telemetry.Envelope")).
		Run(func(args mock.Arguments) { got = args.Get(2).(Envelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), LevelInfo, "invite.accept", "joined trip", "req-1", &userID)

	pub.AssertExpectations(t)
	require.Equal(t, "audit_log", got.EventType)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, &userID, got.UserID)
	assert.Equal(t, "2026-05-01T12:00:00Z", got.OccurredAt)
	assert.Equal(t, AuditPayload{Level: LevelInfo, Action: "invite.accept", Text: "joined trip"}, got.Payload)
}

func TestEmitNilEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	emitter.Emit(context.Background(), LevelError, "x", "y", "z", nil)
}
