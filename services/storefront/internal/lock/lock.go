// Package lock tracks which cart mutations are in flight so that the same
// action cannot be submitted twice while its round trip is pending.
package lock

import (
	"errors"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phase is a whole-cart operation that blocks all other input while active.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingCatalog
	PhaseClearingCart
	PhaseSubmittingOrder
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingCatalog:
		return "loading-catalog"
	case PhaseClearingCart:
		return "clearing-cart"
	case PhaseSubmittingOrder:
		return "submitting-order"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var (
	// ErrBusy is returned while a whole-cart phase is running.
	ErrBusy = errors.New("cart is busy")
	// ErrProductPending is returned when the product already has a mutation in flight.
	ErrProductPending = errors.New("product has a pending cart mutation")
)

var mutationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "storefront_cart_mutations_in_flight",
	Help: "Number of products with a cart mutation awaiting the server",
})

// State is a point-in-time copy of the controller.
type State struct {
	Phase   Phase    `json:"phase"`
	Pending []string `json:"pending"`
}

// Busy reports whether anything at all is in flight.
func (s State) Busy() bool {
	return s.Phase != PhaseIdle || len(s.Pending) > 0
}

// Controller holds the active phase and the set of product ids with a
// mutation in flight. The zero value is not usable; call New.
type Controller struct {
	mu      sync.Mutex
	phase   Phase
	pending map[string]struct{}
}

// New returns an idle controller.
func New() *Controller {
	return &Controller{pending: make(map[string]struct{})}
}

// AcquireProduct marks productID as in flight. Distinct products proceed
// independently. The returned release must be deferred by the caller; calling
// it more than once is harmless.
func (c *Controller) AcquireProduct(productID string) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		return nil, ErrBusy
	}
	if _, ok := c.pending[productID]; ok {
		return nil, ErrProductPending
	}
	c.pending[productID] = struct{}{}
	mutationsInFlight.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.pending, productID)
			c.mu.Unlock()
			mutationsInFlight.Dec()
		})
	}, nil
}

// BeginPhase enters phase. It fails with ErrBusy if another phase is active
// or any product mutation is still pending. release returns the controller
// to PhaseIdle and may be called more than once.
func (c *Controller) BeginPhase(phase Phase) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle || len(c.pending) > 0 {
		return nil, ErrBusy
	}
	c.phase = phase

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.phase = PhaseIdle
			c.mu.Unlock()
		})
	}, nil
}

// IsPending reports whether productID has a mutation in flight.
func (c *Controller) IsPending(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[productID]
	return ok
}

// Phase returns the active phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns the current state with pending ids sorted.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make([]string, 0, len(c.pending))
	for id := range c.pending {
		pending = append(pending, id)
	}
	sort.Strings(pending)
	return State{Phase: c.phase, Pending: pending}
}
