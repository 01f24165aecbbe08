package rabbit

// Invitation records are handed to a mail worker through a durable RabbitMQ queue.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"exam-portal/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the queue name used when none is configured.
const DefaultQueue = "exam.invitations"

// Publisher implements app.InvitationNotifier on top of one AMQP channel.
type Publisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to the broker and declares the invitation queue.
func Dial(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// Publish sends the invitation as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, inv domain.EmailInvitation) error {
	msg, err := invitationMessage(inv)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		msg,
	)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func invitationMessage(inv domain.EmailInvitation) (amqp.Publishing, error) {
	body, err := json.Marshal(inv)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal invitation: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    inv.ID,
		Timestamp:    inv.SentAt,
		Type:         "exam.invitation",
		Body:         body,
	}, nil
}
