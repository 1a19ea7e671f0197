// Package events publishes workflow lifecycle messages to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultExchange is the topic exchange lifecycle messages go to.
const DefaultExchange = "temporal-sandbox.workflows"

// EventType doubles as the routing key.
type EventType string

const (
	WorkflowStarted   EventType = "workflow.started"
	WorkflowCompleted EventType = "workflow.completed"
	WorkflowFailed    EventType = "workflow.failed"
)

// Message is the JSON body of every published event.
type Message struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewMessage stamps a fresh ID and the current time.
func NewMessage(eventType EventType, workflowID, runID string, payload any) *Message {
	return &Message{
		ID:         uuid.New().String(),
		Type:       eventType,
		WorkflowID: workflowID,
		RunID:      runID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends messages over a single AMQP channel.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	logger   zerolog.Logger

	mu sync.Mutex
	ch channel
}

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange string, logger zerolog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	logger.Info().Str("exchange", exchange).Msg("connected to RabbitMQ")

	return &Publisher{conn: conn, exchange: exchange, logger: logger, ch: ch}, nil
}

// Publish sends msg with its type as the routing key.
func (p *Publisher) Publish(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,       // exchange
		string(msg.Type), // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", p.exchange, msg.Type, err)
	}

	p.logger.Debug().
		Str("exchange", p.exchange).
		Str("routing_key", string(msg.Type)).
		Str("message_id", msg.ID).
		Str("workflow_id", msg.WorkflowID).
		Msg("published message")
	return nil
}

// PublishWorkflowEvent builds and publishes a Message.
func (p *Publisher) PublishWorkflowEvent(ctx context.Context, eventType EventType, workflowID, runID string, payload any) error {
	return p.Publish(ctx, NewMessage(eventType, workflowID, runID, payload))
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = fmt.Errorf("close channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close connection: %w", err)
		}
	}
	return firstErr
}
