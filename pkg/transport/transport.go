// Package transport ships structure bundles between installations.
// Queue transports (RabbitMQ, Kafka) deliver the next pending message;
// object transports (S3, local directory) store and fetch named objects.
package transport

import (
	"context"
	"fmt"
)

// Message is one shipped payload. Name is the object key for object
// transports and the message key for Kafka.
type Message struct {
	Name string
	Body []byte
}

// Transport is implemented by every backend.
type Transport interface {
	Connect(ctx context.Context) error
	Close() error

	Send(ctx context.Context, msg Message) error

	// Receive returns the next message. Queue transports keep it
	// pending until Ack.
	Receive(ctx context.Context) (Message, error)

	// Ack confirms the last received message. Object transports
	// treat it as a no-op.
	Ack(ctx context.Context) error

	Ping(ctx context.Context) error
	Type() string
}

// Config holds the settings of all backends; each reads its own group.
type Config struct {
	Type string `yaml:"type"` // rabbitmq, kafka, s3, file

	// RabbitMQ
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	User       string `yaml:"user,omitempty"`
	Password   string `yaml:"password,omitempty"`
	Queue      string `yaml:"queue,omitempty"`
	VHost      string `yaml:"vhost,omitempty"`
	UseTLS     bool   `yaml:"tls,omitempty"`
	Exchange   string `yaml:"exchange,omitempty"`
	RoutingKey string `yaml:"routing_key,omitempty"`
	Durable    bool   `yaml:"durable,omitempty"`
	AutoDelete bool   `yaml:"auto_delete,omitempty"`
	Exclusive  bool   `yaml:"exclusive,omitempty"`

	// Kafka
	Brokers       []string `yaml:"brokers,omitempty"`
	Topic         string   `yaml:"topic,omitempty"`
	ConsumerGroup string   `yaml:"consumer_group,omitempty"`

	// S3
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`

	// S3 and file: objects live under Prefix (a key prefix or a
	// directory); Key names the object Receive fetches.
	Prefix string `yaml:"prefix,omitempty"`
	Key    string `yaml:"key,omitempty"`
}

// New creates a transport from its configuration.
func New(cfg Config) (Transport, error) {
	switch cfg.Type {
	case "rabbitmq":
		return NewRabbitMQ(cfg)
	case "kafka":
		return NewKafka(cfg)
	case "s3":
		return NewS3(cfg)
	case "file":
		return NewFile(cfg)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s (supported: rabbitmq, kafka, s3, file)", cfg.Type)
	}
}
