package cart

import (
	"context"
	"errors"
	"sync"
	"time"
)

type openCartsGauge interface {
	SetOpenCarts(n int)
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry owns the carts of all live sessions, keyed by session id.
type Registry struct {
	mu    sync.RWMutex
	carts map[string]*entry

	coupons    CouponEvaluator
	deliveries DeliveryCatalog
	gauge      openCartsGauge
	now        func() time.Time
}

// NewRegistry builds an empty registry. gauge may be nil.
func NewRegistry(coupons CouponEvaluator, deliveries DeliveryCatalog, gauge openCartsGauge) (*Registry, error) {
	if coupons == nil {
		return nil, errors.New("coupon evaluator required")
	}
	if deliveries == nil {
		return nil, errors.New("delivery catalog required")
	}
	return &Registry{
		carts:      map[string]*entry{},
		coupons:    coupons,
		deliveries: deliveries,
		gauge:      gauge,
		now:        time.Now,
	}, nil
}

// Open returns the cart for sessionID, creating an empty one if needed.
func (r *Registry) Open(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.carts[sessionID]; ok {
		e.lastSeen = r.now()
		return e.store
	}
	store := newStore(sessionID, r.coupons, r.deliveries)
	r.carts[sessionID] = &entry{store: store, lastSeen: r.now()}
	r.report()
	return store
}

// Get returns an existing cart without creating one.
func (r *Registry) Get(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.carts[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

// Adopt moves the guest cart to sessionID after sign-in. When sessionID
// already has a cart the guest lines are merged into it.
func (r *Registry) Adopt(guestID, sessionID string) *Store {
	if guestID == "" || guestID == sessionID {
		return r.Open(sessionID)
	}

	r.mu.Lock()
	guest, hasGuest := r.carts[guestID]
	target, hasTarget := r.carts[sessionID]
	switch {
	case !hasGuest && hasTarget:
		target.lastSeen = r.now()
		r.mu.Unlock()
		return target.store
	case !hasGuest:
		store := newStore(sessionID, r.coupons, r.deliveries)
		r.carts[sessionID] = &entry{store: store, lastSeen: r.now()}
		r.report()
		r.mu.Unlock()
		return store
	case !hasTarget:
		delete(r.carts, guestID)
		guest.lastSeen = r.now()
		r.carts[sessionID] = guest
		r.mu.Unlock()

		guest.store.mu.Lock()
		guest.store.sessionID = sessionID
		guest.store.mu.Unlock()
		return guest.store
	}
	delete(r.carts, guestID)
	target.lastSeen = r.now()
	r.report()
	r.mu.Unlock()

	for _, l := range guest.store.Snapshot().Lines {
		_ = target.store.AddItem(Product{
			ID:        l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Category:  l.Category,
			ImageRef:  l.ImageRef,
		}, l.Quantity)
	}
	guest.store.Close()
	return target.store
}

// Close removes and closes the cart of sessionID.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	e, ok := r.carts[sessionID]
	if ok {
		delete(r.carts, sessionID)
		r.report()
	}
	r.mu.Unlock()
	if ok {
		e.store.Close()
	}
	return ok
}

// Len is the number of open carts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}

// Sweep closes carts not touched within idle and returns how many it closed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Store
	for id, e := range r.carts {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.store)
			delete(r.carts, id)
		}
	}
	if len(stale) > 0 {
		r.report()
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

// CloseAll empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	carts := r.carts
	r.carts = map[string]*entry{}
	r.report()
	r.mu.Unlock()

	for _, e := range carts {
		e.store.Close()
	}
}

// report must be called with r.mu held.
func (r *Registry) report() {
	if r.gauge != nil {
		r.gauge.SetOpenCarts(len(r.carts))
	}
}
