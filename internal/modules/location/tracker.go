// README: Tracker consumes pushed fixes for a journey and fans them out to live-location sinks.
package location

import (
	"context"
	"sync"
	"time"

	"chauffeur/internal/logger"
	"chauffeur/internal/types"
)

// Sink stores the latest driver position somewhere clients can read it.
// Writes are best-effort: a failing sink never stops tracking.
type Sink interface {
	Name() string
	Write(ctx context.Context, id types.ID, fix Fix) error
	Clear(ctx context.Context, id types.ID) error
}

type Tracker struct {
	source       Source
	sinks        []Sink
	log          logger.ILogger
	writeTimeout time.Duration
}

func NewTracker(source Source, log logger.ILogger, writeTimeout time.Duration, sinks ...Sink) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Second
	}
	return &Tracker{source: source, sinks: sinks, log: log, writeTimeout: writeTimeout}
}

// Track subscribes to fixes for id. onFix runs for every fix before the sinks
// are written. The returned stop func cancels the subscription and waits for
// the consumer to exit, so no callback or sink write happens after it returns.
func (t *Tracker) Track(ctx context.Context, id types.ID, onFix func(Fix)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(context.WithoutCancel(ctx))
	fixes, unsubscribe, err := t.source.Subscribe(ctx, id)
	if err != nil {
		cancelCtx()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case fix, ok := <-fixes:
				if !ok {
					return
				}
				if !ValidPoint(fix.Position) {
					t.log.Warning("drop invalid fix", logger.String("request_id", string(id)))
					continue
				}
				if fix.RecordedAt.IsZero() {
					fix.RecordedAt = time.Now()
				}
				if onFix != nil {
					onFix(fix)
				}
				t.write(ctx, id, fix)
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancelCtx()
			unsubscribe()
			<-done
		})
	}
	return stop, nil
}

func (t *Tracker) write(ctx context.Context, id types.ID, fix Fix) {
	for _, s := range t.sinks {
		wctx, cancel := context.WithTimeout(ctx, t.writeTimeout)
		err := s.Write(wctx, id, fix)
		cancel()
		if err != nil && ctx.Err() == nil {
			t.log.Warning("live location write failed",
				logger.String("request_id", string(id)),
				logger.String("sink", s.Name()),
				logger.Error(err))
		}
	}
}

// Clear removes the published position from every sink.
func (t *Tracker) Clear(ctx context.Context, id types.ID) {
	for _, s := range t.sinks {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.writeTimeout)
		err := s.Clear(cctx, id)
		cancel()
		if err != nil {
			t.log.Warning("live location clear failed",
				logger.String("request_id", string(id)),
				logger.String("sink", s.Name()),
				logger.Error(err))
		}
	}
}
