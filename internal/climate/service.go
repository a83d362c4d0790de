package climate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saviottt/solarcalc/internal/logging"
)

// DefaultFetchTimeout bounds a single upstream climatology call.
const DefaultFetchTimeout = 10 * time.Second

// Service fetches climate normals from a source, caching complete results in
// an optional store.
type Service struct {
	store   Store
	source  Source
	timeout time.Duration
}

// NewService creates a new Service. store may be nil to disable caching.
func NewService(store Store, source Source, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Service{
		store:   store,
		source:  source,
		timeout: timeout,
	}
}

// Normals returns the normals for loc, from cache when possible. A cache miss
// results in exactly one upstream call, with no retry.
func (s *Service) Normals(ctx context.Context, loc Location) (Normals, error) {
	if s.store != nil {
		if n, err := s.store.Get(loc); err == nil {
			logging.Ctx(ctx).Debug("climate normals cache hit", slog.String("location", loc.Key()))
			return n, nil
		}
	}
	return s.fetch(ctx, loc)
}

// Refresh fetches normals for loc and replaces any cached copy.
func (s *Service) Refresh(ctx context.Context, loc Location) error {
	_, err := s.fetch(ctx, loc)
	return err
}

// Prune drops expired cache entries and returns how many were removed.
func (s *Service) Prune() int {
	if s.store == nil {
		return 0
	}
	return s.store.Prune(time.Now())
}

func (s *Service) fetch(ctx context.Context, loc Location) (Normals, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: no climate source configured", ErrFetchFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := logging.Ctx(ctx)
	started := time.Now()

	n, err := s.source.Fetch(ctx, loc)
	if err != nil {
		logger.Warn("climate fetch failed",
			slog.String("source", s.source.Name()),
			slog.String("location", loc.Key()),
			slog.Any("error", err))
		return nil, err
	}

	logger.Debug("climate normals fetched",
		slog.String("source", s.source.Name()),
		slog.String("location", loc.Key()),
		slog.Int("months", len(n)),
		slog.Duration("took", time.Since(started)))

	// Partial payloads are returned so the caller can name the missing month,
	// but they are never cached.
	if s.store != nil && n.Complete() {
		s.store.Save(loc, n)
	}
	return n, nil
}
