package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultNATSURL is where the outbox relay publishes events.
	DefaultNATSURL = "nats://127.0.0.1:4222"

	// DefaultSubjectPrefix is the first token of every published event subject.
	DefaultSubjectPrefix = "tasks"

	// DefaultOutboxInterval is the pause between relay polls.
	DefaultOutboxInterval = 2 * time.Second

	// DefaultOutboxBatch is the number of events claimed per relay poll.
	DefaultOutboxBatch = 100
)

// Pagination bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// TaskDetailEventLimit is how many recent events a task detail includes.
	TaskDetailEventLimit = 20

	DefaultRecentEventsLimit = 50
	MaxRecentEventsLimit     = 200
)
