// Package events emits committed-booking events for downstream consumers
// (notifications, analytics). Publishing is strictly post-commit and
// fire-and-forget: a broker failure is logged, never surfaced to the caller.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/lucasferr-dev/zapagenda/internal/model"
	"github.com/lucasferr-dev/zapagenda/libs/kafkax"
)

const TopicAppointmentBooked = "booking.appointment.booked.v1"

type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher returns nil when no brokers are configured; a nil *Publisher
// is a working no-op.
func NewPublisher(brokers string, logger *slog.Logger) *Publisher {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		return nil
	}
	return &Publisher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  list,
			Balancer: &kafka.Hash{},
		}),
		logger: logger,
	}
}

func (p *Publisher) Close() {
	if p != nil && p.writer != nil {
		_ = p.writer.Close()
	}
}

func (p *Publisher) AppointmentBooked(ctx context.Context, appt model.Appointment) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"customer_name":  appt.Name,
		"customer_phone": appt.Phone,
		"service":        appt.Service,
		"date":           appt.Date,
		"time":           appt.Time,
		"created_at":     appt.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		p.logger.Error("failed to build booked event payload", "err", err)
		return
	}
	msg := kafka.Message{
		Topic: TopicAppointmentBooked,
		Key:   []byte(appt.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(TopicAppointmentBooked)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish booked event", "err", err, "appointment_id", appt.ID)
	}
}
