package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smartstream-data/refinery/internal/logging"
)

// Handler processes one batch of notifications.
type Handler func(ctx context.Context, notifs []Notification)

// ConsumerConfig holds NATS subscription settings.
type ConsumerConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject carries bucket-notification payloads.
	Subject string

	// Queue is the queue group name; instances in the same group share
	// the notification stream.
	Queue string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration
}

// DefaultConsumerConfig returns a ConsumerConfig with sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		Subject:       "lake.raw.events",
		Queue:         "refinery",
		Name:          "refinery-consumer",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Consumer subscribes to bucket notifications on NATS and hands decoded
// batches to a Handler.
type Consumer struct {
	cfg     ConsumerConfig
	conn    *nats.Conn
	sub     *nats.Subscription
	handler Handler
	logger  *logging.Logger
}

// NewConsumer connects to NATS. Call Start to begin receiving.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *logging.Logger) (*Consumer, error) {
	if logger == nil {
		logger = logging.Default()
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Consumer{
		cfg:     cfg,
		conn:    conn,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start begins consuming notification batches on the configured subject.
func (c *Consumer) Start() error {
	sub, err := c.conn.QueueSubscribe(c.cfg.Subject, c.cfg.Queue, func(msg *nats.Msg) {
		notifs, err := ParseBatch(msg.Data)
		if err != nil {
			c.logger.Warn("Dropping undecodable notification payload",
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
			return
		}
		if len(notifs) == 0 {
			return
		}
		c.handler(context.Background(), notifs)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.cfg.Subject, err)
	}

	c.sub = sub
	c.logger.Info("Listening for bucket notifications",
		slog.String("subject", c.cfg.Subject),
		slog.String("queue", c.cfg.Queue),
	)
	return nil
}

// Close drains the subscription and closes the connection.
func (c *Consumer) Close() {
	if c.sub != nil {
		_ = c.sub.Drain()
	}
	c.conn.Close()
}

// IsConnected returns true if connected to NATS.
func (c *Consumer) IsConnected() bool {
	return c.conn.IsConnected()
}
