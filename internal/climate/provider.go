package climate

import (
	"context"
	"time"
)

// Source abstracts a climatology service (e.g. NASA POWER).
type Source interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Normals, error)
}

// Store is the contract the in-memory normals cache must satisfy.
type Store interface {
	Save(loc Location, normals Normals)
	Get(loc Location) (Normals, error)
	Prune(now time.Time) int
}
