package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/metrics"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// Subject prefixes. The category is appended as the last token.
const (
	SubjectSnapshotCommitted = "evt.market.snapshot.committed.v1"
	SubjectCatalogUpdated    = "evt.market.catalog.updated.v1"
)

// msgPublisher is the subset of nats.JetStreamContext used here.
type msgPublisher interface {
	PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher emits market events over NATS JetStream.
type Publisher struct {
	nc      *nats.Conn
	js      msgPublisher
	service string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Publisher with JetStream enabled.
func New(nc *nats.Conn, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return newWithJetStream(nc, js, service, logger), nil
}

func newWithJetStream(nc *nats.Conn, js msgPublisher, service string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		nc:      nc,
		js:      js,
		service: service,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PublishSnapshotCommitted announces a newly persisted snapshot.
func (p *Publisher) PublishSnapshotCommitted(ctx context.Context, category model.Category, snap model.Snapshot) error {
	evt := model.SnapshotCommittedEvent{
		ID:          uuid.NewString(),
		Category:    category,
		TradingDate: snap.TradingDate,
		ScrapedAt:   snap.RetrievedAt,
		RowCount:    len(snap.Rows),
		Timestamp:   p.now(),
	}
	return p.publish(ctx, SubjectSnapshotCommitted+"."+string(category), "snapshot.committed", evt.ID, evt)
}

// PublishCatalogUpdated announces a changed product list.
func (p *Publisher) PublishCatalogUpdated(ctx context.Context, category model.Category, date string, entries int) error {
	evt := model.CatalogUpdatedEvent{
		ID:         uuid.NewString(),
		Category:   category,
		Date:       date,
		EntryCount: entries,
		Timestamp:  p.now(),
	}
	return p.publish(ctx, SubjectCatalogUpdated+"."+string(category), "catalog.updated", evt.ID, evt)
}

func (p *Publisher) publish(_ context.Context, subject, eventType, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("publisher.marshal_failed", zap.String("subject", subject), zap.Error(err))
		metrics.IncEventPublished(subject, "marshal_error")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{eventType},
			"event_id":     []string{id},
			"service":      []string{p.service},
			"content_type": []string{"application/json"},
		},
	}

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.MsgId(id))
	metrics.ObserveDuration(metrics.EventPublishLatency, start, subject)

	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("event_type", eventType),
			zap.Error(err))
		metrics.IncEventPublished(subject, "error")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("event_type", eventType))
	metrics.IncEventPublished(subject, "ok")
	return nil
}

// Close drains the connection so buffered events are flushed before it closes.
func (p *Publisher) Close() error {
	if p.nc == nil || p.nc.IsClosed() {
		return nil
	}
	return p.nc.Drain()
}
