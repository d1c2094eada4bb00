package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chauffeur/internal/logger"
	"chauffeur/internal/modules/booking"
	"chauffeur/internal/modules/journey"
)

var (
	_ journey.Notifier = Multi{}
	_ journey.Notifier = (*KafkaPublisher)(nil)
	_ journey.Notifier = (*LogPublisher)(nil)
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func sampleEvent() journey.Event {
	return journey.Event{
		ID:          "evt-1",
		Type:        journey.EventDriverDeparted,
		RequestID:   "req-1",
		TrackingRef: "ref-1",
		Customer:    booking.Contact{Name: "Aoife Byrne"},
		DriverName:  "Seán Murphy",
		OccurredAt:  time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisherKeysByRequest(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "journey-events", log: logger.NewNop()}

	require.NoError(t, p.Notify(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "req-1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "driver_departed", string(msg.Headers[0].Value))

	var decoded journey.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ref-1", decoded.TrackingRef)
	assert.Equal(t, "Seán Murphy", decoded.DriverName)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}, topic: "journey-events", log: logger.NewNop()}

	err := p.Notify(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
}

type failing struct{ err error }

func (f failing) Notify(context.Context, journey.Event) error { return f.err }

func TestMultiJoinsErrors(t *testing.T) {
	w := &fakeWriter{}
	boom := errors.New("down")
	m := Multi{
		failing{err: boom},
		&KafkaPublisher{writer: w, topic: "t", log: logger.NewNop()},
		NewLogPublisher(logger.NewNop()),
	}

	err := m.Notify(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, w.msgs, 1)
	assert.NoError(t, Multi{}.Notify(context.Background(), sampleEvent()))
}

func TestMultiNestsAsJourneyNotifier(t *testing.T) {
	w := &fakeWriter{}
	var n journey.Notifier = Multi{
		Multi{&KafkaPublisher{writer: w, topic: "t", log: logger.NewNop()}},
		NewLogPublisher(logger.NewNop()),
	}
	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	assert.Len(t, w.msgs, 1)
}
