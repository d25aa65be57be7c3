// Package outbox relays committed task events to NATS.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrClosed is returned when publishing on a closed connection.
var ErrClosed = errors.New("publisher closed")

// Publisher delivers encoded events to a subject.
// Flush returns once everything published so far has reached the server.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Flush(ctx context.Context) error
}

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for identification.
	Name string

	// Token for token-based auth.
	Token string

	// User and Password for basic auth.
	User     string
	Password string

	ReconnectWait time.Duration

	// MaxReconnects is the maximum number of reconnection attempts.
	// -1 = unlimited
	MaxReconnects int

	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		Name:           "taskflow-relay",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 5 * time.Second,
	}
}

// NATSPublisher implements Publisher using a core NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	conn, err := nats.Connect(cfg.URL, buildNATSOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

// NewNATSPublisherFromConn wraps an existing connection.
func NewNATSPublisherFromConn(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func buildNATSOptions(cfg NATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

// Publish sends data to subject. Delivery is confirmed by Flush.
func (p *NATSPublisher) Publish(_ context.Context, subject string, data []byte) error {
	if p.conn.IsClosed() {
		return ErrClosed
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Flush round-trips to the server so buffered publishes are not lost on commit.
func (p *NATSPublisher) Flush(ctx context.Context) error {
	if p.conn.IsClosed() {
		return ErrClosed
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn.IsClosed() {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Conn returns the underlying NATS connection.
func (p *NATSPublisher) Conn() *nats.Conn {
	return p.conn
}
