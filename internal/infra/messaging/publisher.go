package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"stayhub/internal/pkg/config"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/notification"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	bookingTopic = "booking.events.v1"
	specVersion  = "1.0"
	contentType  = "application/cloudevents+json"
)

// eventNamespace seeds deterministic event ids so a retried publish carries the same id.
var eventNamespace = uuid.MustParse("6f1c2d4e-8a3b-4c5d-9e7f-0a1b2c3d4e5f")

type cloudEvent struct {
	SpecVersion     string                     `json:"specversion"`
	ID              string                     `json:"id"`
	Type            string                     `json:"type"`
	Source          string                     `json:"source"`
	Subject         string                     `json:"subject"`
	Time            time.Time                  `json:"time"`
	DataContentType string                     `json:"datacontenttype"`
	Data            shared.NotificationPayload `json:"data"`
}

type sender interface {
	Send(ctx context.Context, topic, key string, payload []byte, headers map[string]string) (int32, int64, error)
}

// Publisher writes booking notifications as CloudEvents keyed by booking id,
// so every event of one booking lands on the same partition in order.
type Publisher struct {
	producer sender
	topic    string
	source   string
	logger   *slog.Logger
}

var _ notification.Publisher = (*Publisher)(nil)

func NewPublisher(producer *Producer, cfg config.KafkaConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    cfg.TopicPrefix + bookingTopic,
		source:   cfg.Source,
		logger:   logger.With(slog.String("component", "kafka_publisher")),
	}
}

func (p *Publisher) Publish(ctx context.Context, event shared.NotificationPayload) error {
	evt := cloudEvent{
		SpecVersion:     specVersion,
		ID:              EventID(event),
		Type:            string(event.Event) + ".v1",
		Source:          p.source,
		Subject:         event.BookingID.String(),
		Time:            event.OccurredAt.UTC(),
		DataContentType: "application/json",
		Data:            event,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "failed to encode cloud event"), errs.ErrPermanentIntegration)
	}

	headers := map[string]string{
		"content-type": contentType,
		"ce_type":      evt.Type,
		"ce_id":        evt.ID,
	}
	partition, offset, err := p.producer.Send(ctx, p.topic, event.BookingID.String(), payload, headers)
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "failed to send to %s", p.topic), errs.ErrTransientIntegration)
	}

	p.logger.Debug("event published",
		slog.String("type", evt.Type),
		slog.String("booking_id", event.BookingID.String()),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// EventID is stable for one event occurrence of one booking.
func EventID(event shared.NotificationPayload) string {
	name := event.BookingID.String() + "|" + string(event.Event) + "|" + event.OccurredAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}
