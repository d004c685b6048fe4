package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// rangeIdleTimeout bounds how long a range read waits for the next message
// before treating the stream as drained.
const rangeIdleTimeout = 2 * time.Second

// rangeStartSkew widens the replay window at the front. Ingestion accepts
// event timestamps up to a few minutes ahead of server time, so an event can
// be published before its own timestamp; starting the consumer early keeps
// such events inside the replay and the timestamp filter trims the rest.
const rangeStartSkew = 5 * time.Minute

// EventLog is the append-only, partner-partitioned durable log that backs
// historical reporting. Appends are at-least-once from the caller's
// perspective: a publish failure surfaces as an error, never a silent drop.
type EventLog interface {
	Append(ctx context.Context, event *model.EnrichedEvent) error
	RangeByTime(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error)
}

type jetStreamEventLog struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewJetStreamEventLog returns an EventLog backed by NATS JetStream, one
// subject per partner under a single stream.
func NewJetStreamEventLog(js nats.JetStreamContext, logger *zap.Logger) EventLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jetStreamEventLog{js: js, logger: logger}
}

// EnsureEventStream creates the events stream if it does not exist yet.
func EnsureEventStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(model.EventStreamName)
	if err == nil {
		return nil
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     model.EventStreamName,
		Subjects: []string{model.EventStreamSubjects},
		MaxBytes: model.EventStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create event stream: %w", err)
	}
	return nil
}

func (l *jetStreamEventLog) Append(ctx context.Context, event *model.EnrichedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := l.js.Publish(model.EventSubject(event.PartnerID), data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish event: partner=%s: %w", event.PartnerID, err)
	}
	return nil
}

// RangeByTime replays a partner's subject from start through an ephemeral
// ordered consumer and returns the events with timestamps inside
// [start, end), ascending. Redeliveries are not de-duplicated; readers must
// tolerate at-least-once duplicates.
func (l *jetStreamEventLog) RangeByTime(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error) {
	sub, err := l.js.SubscribeSync(
		model.EventSubject(partnerID),
		nats.OrderedConsumer(),
		nats.StartTime(start.Add(-rangeStartSkew)),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe event range: partner=%s: %w", partnerID, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	var events []model.EnrichedEvent
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := sub.NextMsg(rangeIdleTimeout)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				break
			}
			return nil, fmt.Errorf("read event range: partner=%s: %w", partnerID, err)
		}

		var event model.EnrichedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			l.logger.Warn("skipping undecodable event in range read",
				zap.String("partner_id", partnerID),
				zap.Error(err))
			continue
		}

		// Publish order can lag event time, so filter rather than stop at
		// the first event past the range end.
		if event.Timestamp.Before(start) || !event.Timestamp.Before(end) {
			continue
		}
		events = append(events, event)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}
