package negotiate

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// Registry configuration errors.
var (
	ErrNilNegotiator    = errors.New("negotiate: nil negotiator")
	ErrDuplicateDefault = errors.New("negotiate: default negotiator already registered")
	ErrNoDefault        = errors.New("negotiate: no default negotiator registered")
)

// Registry holds the negotiators considered for a response, in registration
// order, plus one default negotiator that is only reached by fallback.
//
// Reads never lock: every mutation publishes a fresh snapshot.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[registrySnapshot]
}

type registrySnapshot struct {
	negotiators []Negotiator
	def         DefaultNegotiator
}

// NewRegistry returns a registry with def as its default negotiator followed
// by negotiators in order.
func NewRegistry(def DefaultNegotiator, negotiators ...Negotiator) (*Registry, error) {
	reg := &Registry{}
	if err := reg.RegisterDefault(def); err != nil {
		return nil, err
	}
	for _, n := range negotiators {
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (reg *Registry) load() *registrySnapshot {
	if s := reg.snap.Load(); s != nil {
		return s
	}
	return &registrySnapshot{}
}

// Register appends n. Earlier registrations win ties during selection.
func (reg *Registry) Register(n Negotiator) error {
	if n == nil {
		return ErrNilNegotiator
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	cur := reg.load()
	next := &registrySnapshot{
		negotiators: append(slices.Clip(cur.negotiators), n),
		def:         cur.def,
	}
	reg.snap.Store(next)
	return nil
}

// RegisterDefault sets the default negotiator. Registering a second default
// is a configuration error.
func (reg *Registry) RegisterDefault(n DefaultNegotiator) error {
	if n == nil {
		return ErrNilNegotiator
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	cur := reg.load()
	if cur.def != nil {
		return ErrDuplicateDefault
	}
	reg.snap.Store(&registrySnapshot{negotiators: cur.negotiators, def: n})
	return nil
}

// All returns the non-default negotiators in registration order.
func (reg *Registry) All() []Negotiator {
	return slices.Clone(reg.load().negotiators)
}

// Default returns the default negotiator, or nil if none was registered.
func (reg *Registry) Default() DefaultNegotiator {
	return reg.load().def
}

// Validate reports whether the registry can serve negotiated responses.
func (reg *Registry) Validate() error {
	if reg.Default() == nil {
		return ErrNoDefault
	}
	return nil
}
