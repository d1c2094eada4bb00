package journey

import (
	"sync"

	"chauffeur/internal/types"
)

// session is the per-booking actor state. mu serializes transitions; live
// guards the fields the tracker and ticker goroutines touch.
type session struct {
	id     types.ID
	mu     sync.Mutex
	closed bool

	live         sync.Mutex
	driverPos    *types.Point
	dest         *types.Point
	destResolved bool

	stopTracking func()
	stopTicker   func()
}

// acquire returns the locked session for id, creating it if needed.
func (s *Service) acquire(id types.ID) *session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		if !ok {
			sess = &session{id: id}
			s.sessions[id] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if !sess.closed {
			return sess
		}
		sess.mu.Unlock()
	}
}

func (s *Service) lookup(id types.ID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Service) sessionIDs() []types.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]types.ID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// close stops background work and removes the session. Caller holds sess.mu.
func (s *Service) close(sess *session) {
	sess.stopBackground()
	sess.closed = true
	s.mu.Lock()
	if s.sessions[sess.id] == sess {
		delete(s.sessions, sess.id)
	}
	s.mu.Unlock()
}

func (sess *session) stopBackground() {
	if sess.stopTracking != nil {
		sess.stopTracking()
		sess.stopTracking = nil
	}
	if sess.stopTicker != nil {
		sess.stopTicker()
		sess.stopTicker = nil
	}
}

func (sess *session) setDriverPos(p types.Point) {
	sess.live.Lock()
	sess.driverPos = &p
	sess.live.Unlock()
}

func (sess *session) snapshot() (driver, dest *types.Point, resolved bool) {
	sess.live.Lock()
	defer sess.live.Unlock()
	if sess.driverPos != nil {
		p := *sess.driverPos
		driver = &p
	}
	if sess.dest != nil {
		p := *sess.dest
		dest = &p
	}
	return driver, dest, sess.destResolved
}
