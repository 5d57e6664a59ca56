package usecase

import (
	"context"
	"time"

	"github.com/fastygo/roadmap/internal/realtime"
)

// ChangePublisher fans committed item changes out to live sessions. Publishing
// is best-effort: implementations queue what they cannot deliver and never
// report failure back into a committed mutation.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change realtime.Change)
}

// Clock is replaced in tests.
type Clock func() time.Time
