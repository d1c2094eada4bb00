// README: Background work per journey: the on-board elapsed ticker and the session reconciler.
package journey

import (
	"context"
	"time"

	"chauffeur/internal/logger"
	"chauffeur/internal/modules/booking"
	"chauffeur/internal/types"
)

// ensureTicker starts publishing progress snapshots for an on-board journey.
// Caller holds sess.mu.
func (s *Service) ensureTicker(sess *session) {
	if sess.stopTicker != nil || s.progress == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	id := sess.id

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cfg.ElapsedTick)
		defer ticker.Stop()

		s.publishProgress(ctx, id)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.publishProgress(ctx, id)
			}
		}
	}()

	sess.stopTicker = func() {
		cancel()
		<-done
	}
}

func (s *Service) publishProgress(ctx context.Context, id types.ID) {
	p, err := s.Progress(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warning("progress snapshot failed", logger.String("request_id", string(id)), logger.Error(err))
		}
		return
	}
	if err := s.progress.PublishProgress(ctx, p); err != nil && ctx.Err() == nil {
		s.log.Warning("publish progress failed", logger.String("request_id", string(id)), logger.Error(err))
	}
}

// resume brings up tracking (and the ticker when on board) for an active
// journey that has no running session, e.g. after a restart.
func (s *Service) resume(ctx context.Context, id types.ID) error {
	sess := s.acquire(id)
	defer sess.mu.Unlock()

	b, err := s.findJourney(ctx, id)
	if err != nil {
		return err
	}
	if !tracked(b) {
		return ErrInvalidState
	}
	s.seedPosition(ctx, sess)
	s.ensureTracking(ctx, sess)
	if b.Journey.Status == booking.JourneyOnBoard {
		s.resolveDestination(ctx, sess, b)
		s.ensureTicker(sess)
	}
	return nil
}

// seedPosition restores the cached driver position into a fresh session so the
// gate does not fall back to a stale persisted one. Caller holds sess.mu.
func (s *Service) seedPosition(ctx context.Context, sess *session) {
	if s.cache == nil {
		return
	}
	if driver, _, _ := sess.snapshot(); driver != nil {
		return
	}
	fix, ok, err := s.cache.Latest(ctx, sess.id)
	if err != nil {
		s.log.Warning("load cached position failed", logger.String("request_id", string(sess.id)), logger.Error(err))
		return
	}
	if ok {
		sess.setDriverPos(fix.Position)
	}
}

// RunReconciler periodically aligns sessions with the repository until ctx is done.
func (s *Service) RunReconciler(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReconcileEvery)
	defer ticker.Stop()

	s.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reconcile(ctx)
		}
	}
}

// Reconcile resumes tracking for every active journey without a session and
// tears down sessions whose booking is no longer active (completed elsewhere
// or cancelled).
func (s *Service) Reconcile(ctx context.Context) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		s.log.Error("list active journeys failed", logger.Error(err))
		return
	}

	activeIDs := make(map[types.ID]bool, len(active))
	for _, b := range active {
		activeIDs[b.RequestID] = true
		if sess := s.lookup(b.RequestID); sess != nil && sess.tracking() {
			continue
		}
		if err := s.resume(ctx, b.RequestID); err != nil {
			s.log.Warning("resume journey failed", logger.String("request_id", string(b.RequestID)), logger.Error(err))
			continue
		}
		s.log.Info("journey tracking resumed", logger.String("request_id", string(b.RequestID)))
	}

	for _, id := range s.sessionIDs() {
		if activeIDs[id] {
			continue
		}
		s.teardownIfInactive(ctx, id)
	}
}

func (s *Service) teardownIfInactive(ctx context.Context, id types.ID) {
	sess := s.lookup(id)
	if sess == nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}

	b, err := s.repo.Find(ctx, id)
	if err == nil && tracked(b) {
		return
	}
	if err != nil && !isNotFound(err) {
		s.log.Warning("reconcile lookup failed", logger.String("request_id", string(id)), logger.Error(err))
		return
	}

	hadTracking := sess.stopTracking != nil
	s.close(sess)
	if hadTracking {
		s.clearLive(ctx, id)
		s.log.Info("journey session torn down", logger.String("request_id", string(id)))
	}
}

// Shutdown stops every tracker and ticker without touching persisted state.
// Active journeys are picked up again by the next Reconcile.
func (s *Service) Shutdown() {
	for _, id := range s.sessionIDs() {
		sess := s.lookup(id)
		if sess == nil {
			continue
		}
		sess.mu.Lock()
		if !sess.closed {
			s.close(sess)
		}
		sess.mu.Unlock()
	}
}
