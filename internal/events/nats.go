package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no subject prefix is configured.
const DefaultSubjectPrefix = "tasks.status"

// Publisher is the subset of *nats.Conn used by NATSPublisher.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher forwards status events to NATS. Each event is published as
// JSON on "<prefix>.<status>", e.g. "tasks.status.finished".
type NATSPublisher struct {
	conn   Publisher
	prefix string
	logger *slog.Logger
}

var _ EventHandler = (*NATSPublisher)(nil)

// NewNATSPublisher creates a NATSPublisher. An empty prefix selects
// DefaultSubjectPrefix.
func NewNATSPublisher(conn Publisher, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With("component", "nats_publisher"),
	}
}

// Subject returns the subject an event with the given status is published on.
func (p *NATSPublisher) Subject(event *TaskStatusEvent) string {
	return p.prefix + "." + string(event.Status)
}

// HandleEvent implements EventHandler.
func (p *NATSPublisher) HandleEvent(ctx context.Context, event *TaskStatusEvent) error {
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.DebugContext(ctx, "published task status event",
		"subject", subject,
		"event_id", event.ID,
		"task_id", event.TaskID)
	return nil
}

// ConnectNATS dials the NATS server at url with reconnect logging.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	nc, err := nats.Connect(url,
		nats.Name("task-tracker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	logger.Info("connected to NATS", "url", nc.ConnectedUrl())
	return nc, nil
}
