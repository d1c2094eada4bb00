package notify

import (
	"context"
	"errors"

	"chauffeur/internal/logger"
	"chauffeur/internal/modules/journey"
)

// LogPublisher records events in the service log. It stands in for Kafka when
// no brokers are configured.
type LogPublisher struct {
	log logger.ILogger
}

func NewLogPublisher(log logger.ILogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Notify(_ context.Context, e journey.Event) error {
	p.log.Info("journey event",
		logger.String("event_id", e.ID),
		logger.String("event", string(e.Type)),
		logger.String("request_id", string(e.RequestID)),
		logger.String("tracking_ref", e.TrackingRef),
		logger.String("customer", e.Customer.Name))
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []journey.Notifier

func (m Multi) Notify(ctx context.Context, e journey.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
