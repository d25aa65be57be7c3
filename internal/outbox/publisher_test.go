package outbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getNATSURL returns the NATS URL for testing, or skips the test.
func getNATSURL(t *testing.T) string {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}

	if testing.Short() {
		t.Skip("skipping NATS test in short mode")
	}

	cfg := DefaultNATSConfig()
	cfg.URL = url
	cfg.ConnectTimeout = 2 * time.Second
	cfg.MaxReconnects = 0

	p, err := NewNATSPublisher(cfg)
	if err != nil {
		t.Skipf("skipping: NATS not available at %s: %v", url, err)
	}
	p.Conn().Close()

	return url
}

func TestBuildNATSOptions(t *testing.T) {
	cfg := DefaultNATSConfig()
	assert.Len(t, buildNATSOptions(cfg), 4, "defaults carry a client name")

	cfg.Name = ""
	cfg.Token = "secret"
	cfg.User = "relay"
	assert.Len(t, buildNATSOptions(cfg), 5)
}

func TestNATSPublisher_PublishAndFlush(t *testing.T) {
	url := getNATSURL(t)

	cfg := DefaultNATSConfig()
	cfg.URL = url
	p, err := NewNATSPublisher(cfg)
	require.NoError(t, err)
	defer p.Close()

	msgs := make(chan *nats.Msg, 1)
	sub, err := p.Conn().ChanSubscribe("test.outbox.>", msgs)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Publish(ctx, "test.outbox.task_transition", []byte("hello")))
	require.NoError(t, p.Flush(ctx))

	select {
	case msg := <-msgs:
		assert.Equal(t, "hello", string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNATSPublisher_Closed(t *testing.T) {
	url := getNATSURL(t)

	cfg := DefaultNATSConfig()
	cfg.URL = url
	p, err := NewNATSPublisher(cfg)
	require.NoError(t, err)
	p.Conn().Close()

	ctx := context.Background()
	assert.ErrorIs(t, p.Publish(ctx, "test.outbox.closed", nil), ErrClosed)
	assert.ErrorIs(t, p.Flush(ctx), ErrClosed)
	assert.NoError(t, p.Close())
}
