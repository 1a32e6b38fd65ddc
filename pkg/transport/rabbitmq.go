package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ publishes bundles to a queue and reads them back with
// manual acknowledgement.
type RabbitMQ struct {
	config       Config
	conn         *amqp.Connection
	channel      *amqp.Channel
	lastDelivery *amqp.Delivery
}

func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue name is required for RabbitMQ")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5672
		if cfg.UseTLS {
			cfg.Port = 5671
		}
	}
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = cfg.Queue
	}
	return &RabbitMQ{config: cfg}, nil
}

// URL is the amqp(s) connection string.
func (r *RabbitMQ) URL() string {
	u := url.URL{
		Scheme: "amqp",
		Host:   r.config.Host + ":" + strconv.Itoa(r.config.Port),
		Path:   "/" + r.config.VHost,
	}
	if r.config.User != "" {
		u.User = url.UserPassword(r.config.User, r.config.Password)
	}
	if r.config.UseTLS {
		u.Scheme = "amqps"
	}
	if r.config.VHost == "/" {
		u.Path = "/"
	}
	return u.String()
}

func (r *RabbitMQ) Connect(ctx context.Context) error {
	var err error
	if r.config.UseTLS {
		r.conn, err = amqp.DialTLS(r.URL(), &tls.Config{
			ServerName: r.config.Host,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		r.conn, err = amqp.Dial(r.URL())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Параметры должны совпадать с существующей очередью
	_, err = r.channel.QueueDeclare(r.config.Queue, r.config.Durable, r.config.AutoDelete, r.config.Exclusive, false, nil)
	if err != nil {
		r.channel.Close()
		r.conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return nil
}

func (r *RabbitMQ) Send(ctx context.Context, msg Message) error {
	if r.channel == nil {
		return fmt.Errorf("not connected to RabbitMQ")
	}
	err := r.channel.PublishWithContext(ctx, r.config.Exchange, r.config.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/xml",
		MessageId:    msg.Name,
		Body:         msg.Body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Receive gets one message with manual ack. An empty queue waits one
// second before reporting no messages.
func (r *RabbitMQ) Receive(ctx context.Context) (Message, error) {
	if r.channel == nil {
		return Message{}, fmt.Errorf("not connected to RabbitMQ")
	}
	delivery, ok, err := r.channel.Get(r.config.Queue, false)
	if err != nil {
		return Message{}, fmt.Errorf("failed to get message: %w", err)
	}
	if !ok {
		select {
		case <-time.After(time.Second):
			return Message{}, fmt.Errorf("no messages available")
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
	r.lastDelivery = &delivery
	return Message{Name: delivery.MessageId, Body: delivery.Body}, nil
}

func (r *RabbitMQ) Ack(_ context.Context) error {
	if r.lastDelivery == nil {
		return fmt.Errorf("no message to acknowledge")
	}
	if err := r.lastDelivery.Ack(false); err != nil {
		return fmt.Errorf("failed to acknowledge message: %w", err)
	}
	r.lastDelivery = nil
	return nil
}

// Nack rejects the last received message, optionally returning it to
// the queue.
func (r *RabbitMQ) Nack(requeue bool) error {
	if r.lastDelivery == nil {
		return fmt.Errorf("no message to reject")
	}
	if err := r.lastDelivery.Nack(false, requeue); err != nil {
		return fmt.Errorf("failed to reject message: %w", err)
	}
	r.lastDelivery = nil
	return nil
}

func (r *RabbitMQ) Ping(_ context.Context) error {
	if r.conn == nil || r.conn.IsClosed() {
		return fmt.Errorf("not connected to RabbitMQ")
	}
	if r.channel == nil {
		return fmt.Errorf("channel not open")
	}
	return nil
}

func (r *RabbitMQ) Type() string { return "rabbitmq" }
