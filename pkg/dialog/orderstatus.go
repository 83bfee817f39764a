package dialog

import (
	"math/rand"
	"sync"
)

// OrderStatus is the synthesized answer for one tracked order.
type OrderStatus struct {
	Status  string
	ETADays int
}

// OrderStatusProvider answers order-tracking requests. The production system
// has no order backend yet; the provider is injectable precisely so the
// fabricated answer stays visible and testable.
type OrderStatusProvider interface {
	Status(orderNumber string) OrderStatus
}

var fakeStatuses = []string{
	"received",
	"in production",
	"quality check",
	"dispatched",
	"in transit",
	"delivered",
}

// FakeOrderStatusProvider fabricates a status from a seeded random source.
type FakeOrderStatusProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFakeOrderStatusProvider returns a provider with a deterministic seed.
func NewFakeOrderStatusProvider(seed int64) *FakeOrderStatusProvider {
	return &FakeOrderStatusProvider{rng: rand.New(rand.NewSource(seed))}
}

// Status picks a random lifecycle stage and, for undelivered orders, an ETA.
func (p *FakeOrderStatusProvider) Status(string) OrderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := fakeStatuses[p.rng.Intn(len(fakeStatuses))]
	if status == "delivered" {
		return OrderStatus{Status: status}
	}
	return OrderStatus{Status: status, ETADays: 1 + p.rng.Intn(9)}
}
