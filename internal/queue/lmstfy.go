package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
)

// LmstfyOptions configures the lmstfy backend.
type LmstfyOptions struct {
	Host      string
	Port      int
	Namespace string
	Token     string
	Queue     string
	TTL       time.Duration // zero keeps jobs until consumed
}

// Lmstfy publishes each message as a job.
type Lmstfy struct {
	cli   *client.LmstfyClient
	queue string
	ttl   uint32
}

func NewLmstfy(o LmstfyOptions) (*Lmstfy, error) {
	if o.Host == "" || o.Namespace == "" || o.Token == "" {
		return nil, errors.New("lmstfy: host, namespace and token are required")
	}
	return &Lmstfy{
		cli:   client.NewLmstfyClient(o.Host, o.Port, o.Namespace, o.Token),
		queue: o.Queue,
		ttl:   uint32(o.TTL.Seconds()),
	}, nil
}

// Send ignores ctx; the lmstfy client has no context support.
func (l *Lmstfy) Send(_ context.Context, message string) error {
	if _, err := l.cli.Publish(l.queue, []byte(message), l.ttl, 3, 0); err != nil {
		return fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return nil
}
