package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// publisher is the slice of *amqp091.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPNotifier publishes TopUpEvent JSON to a durable RabbitMQ queue.
type AMQPNotifier struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel publisher
	queue   string
	log     logrus.FieldLogger
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewAMQPNotifier dials the broker and declares the queue.
func NewAMQPNotifier(amqpURL, queue string, log logrus.FieldLogger) (*AMQPNotifier, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Bounded dial so startup does not hang on an unreachable broker.
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := openQueue(conn, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}

	n := newAMQPNotifier(ch, queue, log)
	n.conn = conn
	return n, nil
}

func newAMQPNotifier(ch publisher, queue string, log logrus.FieldLogger) *AMQPNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AMQPNotifier{channel: ch, queue: queue, log: log}
}

func openQueue(conn *amqp091.Connection, queue string) (*amqp091.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return ch, nil
}

func (n *AMQPNotifier) NotifyTopUp(ctx context.Context, event TopUpEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal top-up event: %w", err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.Timestamp,
		Body:         body,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx, "", n.queue, false, false, msg)
	if err == nil {
		return nil
	}
	if n.conn == nil || n.conn.IsClosed() {
		return fmt.Errorf("publish top-up event: %w", err)
	}

	// One-shot retry on a fresh channel.
	n.log.WithError(err).WithField("queue", n.queue).Warn("publish failed; reopening channel")
	ch, chErr := openQueue(n.conn, n.queue)
	if chErr != nil {
		return fmt.Errorf("publish top-up event: %w", errors.Join(err, chErr))
	}
	n.channel.Close()
	n.channel = ch
	if err := n.channel.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish top-up event: %w", err)
	}
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (n *AMQPNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}
