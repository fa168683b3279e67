package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

const (
	// RecordChangesStream holds every record change event.
	RecordChangesStream = "RECORD_CHANGES"
	// RecordSubjectPrefix is followed by "<bucket>.<collection>".
	RecordSubjectPrefix = "mapsearch.records"
)

// RecordSubject returns the subject a collection's changes are published on.
func RecordSubject(bucket, collection string) string {
	return RecordSubjectPrefix + "." + bucket + "." + collection
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func connect(url string) (*nats.Conn, nats.JetStreamContext, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      RecordChangesStream,
		Subjects:  []string{RecordSubjectPrefix + ".>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return conn, js, nil
}

// PublishRecordChange publishes change on its collection subject.
func (p *Publisher) PublishRecordChange(ctx context.Context, change *domain.RecordChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(RecordSubject(change.Bucket, change.Collection), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
