// README: Live-location sinks: booking repository, Redis cache and the Firebase RTDB mirror.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/redis/go-redis/v9"

	"chauffeur/internal/types"
)

// LocationWriter is the narrow repository operation behind RepositorySink.
type LocationWriter interface {
	UpdateDriverLocation(ctx context.Context, id types.ID, pos types.Point) error
}

// RepositorySink writes the position onto the booking record. Clearing is the
// journey's job when it persists the completed state, so Clear is a no-op.
type RepositorySink struct {
	repo LocationWriter
}

func NewRepositorySink(repo LocationWriter) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Name() string { return "repository" }

func (s *RepositorySink) Write(ctx context.Context, id types.ID, fix Fix) error {
	return s.repo.UpdateDriverLocation(ctx, id, fix.Position)
}

func (s *RepositorySink) Clear(context.Context, types.ID) error { return nil }

const (
	defaultLiveTTL = 2 * time.Hour
	locationPrefix = "journey:loc:"
	progressPrefix = "journey:progress:"
)

// LiveStore caches the latest fix and progress snapshot per journey in Redis.
type LiveStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLiveStore(rdb *redis.Client, ttl time.Duration) *LiveStore {
	if ttl <= 0 {
		ttl = defaultLiveTTL
	}
	return &LiveStore{rdb: rdb, ttl: ttl}
}

func (s *LiveStore) Name() string { return "redis" }

func (s *LiveStore) Write(ctx context.Context, id types.ID, fix Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, locationPrefix+string(id), payload, s.ttl).Err()
}

func (s *LiveStore) Clear(ctx context.Context, id types.ID) error {
	return s.rdb.Del(ctx, locationPrefix+string(id), progressPrefix+string(id)).Err()
}

// Latest returns the cached fix for id; ok is false when nothing is cached.
func (s *LiveStore) Latest(ctx context.Context, id types.ID) (Fix, bool, error) {
	raw, err := s.rdb.Get(ctx, locationPrefix+string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fix{}, false, nil
	}
	if err != nil {
		return Fix{}, false, err
	}
	var fix Fix
	if err := json.Unmarshal(raw, &fix); err != nil {
		return Fix{}, false, fmt.Errorf("decode cached fix for %s: %w", id, err)
	}
	return fix, true, nil
}

func (s *LiveStore) PublishProgress(ctx context.Context, p Progress) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, progressPrefix+string(p.RequestID), payload, s.ttl).Err()
}

func (s *LiveStore) ClearProgress(ctx context.Context, id types.ID) error {
	return s.rdb.Del(ctx, progressPrefix+string(id)).Err()
}

// rtdbLocationEntry is the node a customer app listens to at
// /journey_locations/{requestID}.
type rtdbLocationEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// FirebaseMirror publishes the driver position to the Realtime Database.
type FirebaseMirror struct {
	client *db.Client
}

func NewFirebaseMirror(client *db.Client) *FirebaseMirror {
	return &FirebaseMirror{client: client}
}

func (m *FirebaseMirror) Name() string { return "firebase" }

func (m *FirebaseMirror) ref(id types.ID) *db.Ref {
	return m.client.NewRef("journey_locations/" + string(id))
}

func (m *FirebaseMirror) Write(ctx context.Context, id types.ID, fix Fix) error {
	return m.ref(id).Set(ctx, rtdbLocationEntry{
		Lat:       fix.Position.Lat,
		Lng:       fix.Position.Lng,
		Timestamp: fix.RecordedAt.UnixMilli(),
	})
}

func (m *FirebaseMirror) Clear(ctx context.Context, id types.ID) error {
	return m.ref(id).Delete(ctx)
}
