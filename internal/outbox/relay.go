package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mtlprog/taskflow/internal/config"
	"github.com/mtlprog/taskflow/internal/database"
	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/repository"
	"github.com/sethvargo/go-retry"
)

// Envelope is the message body published for every task event.
type Envelope struct {
	EventID   string          `json:"event_id"`
	TaskID    string          `json:"task_id"`
	TenantID  string          `json:"tenant_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEnvelope builds the published form of an event.
func NewEnvelope(event *domain.TaskEvent) Envelope {
	return Envelope{
		EventID:   event.ID,
		TaskID:    event.TaskID,
		TenantID:  event.TenantID,
		Type:      string(event.Type),
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}
}

// Subject returns "<prefix>.<tenant>.<type>" with the type lowercased.
// Characters NATS treats as token separators or wildcards are replaced in the tenant.
func Subject(prefix string, event *domain.TaskEvent) string {
	return prefix + "." + subjectToken(event.TenantID) + "." + strings.ToLower(subjectToken(string(event.Type)))
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return subjectReplacer.Replace(s)
}

// RelayConfig controls the polling loop.
type RelayConfig struct {
	Interval      time.Duration
	BatchSize     int
	SubjectPrefix string

	// MaxRetries bounds publish attempts per event beyond the first. Zero selects the default.
	MaxRetries uint64
	RetryBase  time.Duration
}

// DefaultRelayConfig returns configuration with sensible defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Interval:      config.DefaultOutboxInterval,
		BatchSize:     config.DefaultOutboxBatch,
		SubjectPrefix: config.DefaultSubjectPrefix,
		MaxRetries:    3,
		RetryBase:     100 * time.Millisecond,
	}
}

// Relay moves unpublished events from task_events to the publisher.
// Delivery is at least once: a batch that fails midway rolls back and every event in
// it is sent again on the next run.
type Relay struct {
	db        database.TxBeginner
	events    *repository.TaskEventRepository
	publisher Publisher
	cfg       RelayConfig
}

// NewRelay creates a new Relay. Zero config fields fall back to defaults.
func NewRelay(db database.TxBeginner, events *repository.TaskEventRepository, publisher Publisher, cfg RelayConfig) *Relay {
	defaults := DefaultRelayConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = defaults.SubjectPrefix
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaults.RetryBase
	}

	return &Relay{
		db:        db,
		events:    events,
		publisher: publisher,
		cfg:       cfg,
	}
}

// RunOnce claims one batch, publishes it and marks it published.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	var published int

	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		events, err := r.events.ClaimUnpublished(ctx, tx, r.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]string, 0, len(events))
		for _, event := range events {
			if err := r.publish(ctx, event); err != nil {
				return fmt.Errorf("publish event %s: %w", event.ID, err)
			}
			ids = append(ids, event.ID)
		}

		if err := r.publisher.Flush(ctx); err != nil {
			return err
		}

		if err := r.events.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		slog.Info("outbox batch published", "count", published)
	}

	return published, nil
}

func (r *Relay) publish(ctx context.Context, event *domain.TaskEvent) error {
	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	subject := Subject(r.cfg.SubjectPrefix, event)

	backoff := retry.WithMaxRetries(r.cfg.MaxRetries, retry.NewExponential(r.cfg.RetryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.publisher.Publish(ctx, subject, data); err != nil {
			slog.Warn("publish failed", "event_id", event.ID, "subject", subject, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Run calls RunOnce every interval until ctx is done. A full batch is followed
// immediately by another run. Batch errors are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	slog.Info("outbox relay started",
		"interval", r.cfg.Interval,
		"batch_size", r.cfg.BatchSize,
		"subject_prefix", r.cfg.SubjectPrefix,
	)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Error("outbox batch failed", "error", err)
		}

		if err == nil && n == r.cfg.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}
