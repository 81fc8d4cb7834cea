package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Publisher sends JSON events to a topic exchange. Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher connects to amqpURL and declares exchange.
func NewPublisher(amqpURL, exchange string) (Publisher, error) {
	conn, ch, err := dialExchange(amqpURL, exchange)
	if err != nil {
		return nil, err
	}
	return &publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// newPublishing wraps an encoded event. Type mirrors the routing key so
// consumers bound with wildcards can still tell events apart.
func newPublishing(routingKey string, body []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Body:         body,
		Timestamp:    now,
		DeliveryMode: amqp.Persistent,
	}
}

func (p *publisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return amqp.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		newPublishing(routingKey, body, time.Now()),
	)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", routingKey, p.exchange, err)
	}
	return nil
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops events. Used when AMQP_URL
// is unset or the broker is unreachable at startup.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	log.Printf("warning: RabbitMQ not configured; dropping %s", routingKey)
	return nil
}

func (noopPublisher) Close() error { return nil }
