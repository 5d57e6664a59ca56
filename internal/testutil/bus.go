package testutil

import (
	"context"
	"sync"

	"github.com/fastygo/roadmap/internal/realtime"
	"github.com/fastygo/roadmap/repository"
)

// Publisher records published changes.
type Publisher struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (p *Publisher) PublishChange(_ context.Context, change realtime.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

// Changes returns the recorded changes in publish order.
func (p *Publisher) Changes() []realtime.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Change(nil), p.changes...)
}

// Last returns the most recent change, or the zero Change.
func (p *Publisher) Last() realtime.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.changes) == 0 {
		return realtime.Change{}
	}
	return p.changes[len(p.changes)-1]
}

// Bus is an in-process ChangeBus. Published changes are encoded and fanned out
// to every open subscription.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan []byte
	next int
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan []byte{}}
}

func (b *Bus) Publish(_ context.Context, change realtime.Change) error {
	payload, err := realtime.Encode(change)
	if err != nil {
		return err
	}
	b.PublishRaw(payload)
	return nil
}

// PublishRaw delivers payload as is, which lets tests inject malformed messages.
func (b *Bus) PublishRaw(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		ch <- append([]byte(nil), payload...)
	}
}

// PublishChange lets the bus stand in for the change publisher.
func (b *Bus) PublishChange(ctx context.Context, change realtime.Change) {
	_ = b.Publish(ctx, change)
}

func (b *Bus) Subscribe(ctx context.Context) (<-chan []byte, func() error, error) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan []byte, 64)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	closeFn := func() error {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
		return nil
	}
	go func() {
		<-ctx.Done()
		_ = closeFn()
	}()
	return ch, closeFn, nil
}

var _ repository.ChangeBus = (*Bus)(nil)
