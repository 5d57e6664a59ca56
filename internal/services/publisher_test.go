package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/roadmap/internal/realtime"
)

type senderFunc func(ctx context.Context, change realtime.Change) error

func (f senderFunc) Publish(ctx context.Context, change realtime.Change) error { return f(ctx, change) }

func TestDirectPublisher(t *testing.T) {
	var got []string
	p := NewDirectPublisher(senderFunc(func(_ context.Context, c realtime.Change) error {
		got = append(got, c.ID)
		if c.ID == "boom" {
			return errors.New("redis down")
		}
		return nil
	}), nil)

	p.PublishChange(context.Background(), realtime.Change{Type: realtime.Delete, ID: "item-1"})
	p.PublishChange(context.Background(), realtime.Change{Type: realtime.Delete, ID: "boom"})

	assert.Equal(t, []string{"item-1", "boom"}, got)

	assert.NotPanics(t, func() {
		NewDirectPublisher(nil, nil).PublishChange(context.Background(), realtime.Change{ID: "x"})
	})
}
