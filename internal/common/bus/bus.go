package bus

import (
	"sync"
	"time"
)

// Typed in-process events for cross-component notifications. Subscribers are
// explicit; delivery is synchronous in publish order per subscriber.

type AvailabilityChanged struct {
	DeveloperID string
	Available   bool
	ChangedAt   time.Time
}

type RequestAssigned struct {
	RequestID   string
	DeveloperID string
	ClientID    string
	AssignedAt  time.Time
}

type LocationUpdated struct {
	DeveloperID string
	Lat         float64
	Lng         float64
	UpdatedAt   time.Time
}

type Bus struct {
	mu           sync.RWMutex
	availability []func(AvailabilityChanged)
	assigned     []func(RequestAssigned)
	location     []func(LocationUpdated)
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) SubscribeAvailability(fn func(AvailabilityChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.availability = append(b.availability, fn)
}

func (b *Bus) SubscribeAssigned(fn func(RequestAssigned)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assigned = append(b.assigned, fn)
}

func (b *Bus) SubscribeLocation(fn func(LocationUpdated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.location = append(b.location, fn)
}

func (b *Bus) PublishAvailability(ev AvailabilityChanged) {
	b.mu.RLock()
	subs := b.availability
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Bus) PublishAssigned(ev RequestAssigned) {
	b.mu.RLock()
	subs := b.assigned
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Bus) PublishLocation(ev LocationUpdated) {
	b.mu.RLock()
	subs := b.location
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
