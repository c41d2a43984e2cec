package results

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher receives one event per test attempt.
type Publisher interface {
	Publish(ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close() error        { return nil }

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher sends events as JSON to <subject>.<run id>.
type NATSPublisher struct {
	conn    natsConn
	subject string
	logger  *zap.Logger
}

// DialNATS connects to url and returns a publisher for subject.
func DialNATS(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("uiprobe"), nats.MaxReconnects(3))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return newNATSPublisher(nc, subject, logger), nil
}

func newNATSPublisher(conn natsConn, subject string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, logger: logger.Named("results_publisher")}
}

func (p *NATSPublisher) Publish(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	subj := p.subject + "." + ev.RunID
	if err := p.conn.Publish(subj, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subj, err)
	}
	p.logger.Debug("Published result event", zap.String("subject", subj), zap.String("test_id", ev.TestID))
	return nil
}

// Close flushes pending events and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
