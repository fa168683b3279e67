package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// IndexerDurable is the durable consumer name shared by indexer replicas.
const IndexerDurable = "record-indexer"

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the record stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeRecordChanges delivers every record change to handler. Messages
// are acked on success and redelivered (up to three times) on failure.
func (s *Subscriber) SubscribeRecordChanges(ctx context.Context, handler func(ctx context.Context, change *domain.RecordChange) error) error {
	sub, err := s.js.Subscribe(RecordSubjectPrefix+".>", func(msg *nats.Msg) {
		var change domain.RecordChange
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			slog.Warn("dropping undecodable record change", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &change); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(IndexerDurable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
