package util

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	url     string
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
}

func NewRabbitMQClient(cfg *config.Config) (*RabbitMQClient, error) {
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL not configured")
	}

	r := &RabbitMQClient{url: cfg.RabbitMQURL}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQClient) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	r.conn = conn
	r.channel = ch
	return nil
}

// DeclareDirect declares a durable direct exchange with one bound queue.
func (r *RabbitMQClient) DeclareDirect(exchange, queue, routingKey string) error {
	ch := r.GetChannel()
	if ch == nil {
		return errors.New("rabbitmq channel not available")
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(queue, routingKey, exchange, false, nil)
}

// Publish sends a persistent JSON message, reconnecting once if the
// channel was closed underneath us.
func (r *RabbitMQClient) Publish(exchange, routingKey string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil || r.channel.IsClosed() {
		if err := r.connect(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (r *RabbitMQClient) GetChannel() *amqp.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
