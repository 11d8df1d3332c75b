package push

import "sync"

// AnyMethod registers a processor for every method of a type
const AnyMethod = "*"

type registryKey struct {
	typ    RequestType
	method string
}

// Registry maps (type, method) to processors
type Registry struct {
	mu         sync.RWMutex
	processors map[registryKey]Processor
	fallback   Processor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{processors: make(map[registryKey]Processor)}
}

// Register adds p for typ and method; AnyMethod covers every method of typ
func (r *Registry) Register(typ RequestType, method string, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[registryKey{typ, method}] = p
}

// SetDefault sets the processor used when nothing matches
func (r *Registry) SetDefault(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// Resolve returns the exact match, then the type-wide entry, then the default, which may be nil
func (r *Registry) Resolve(typ RequestType, method string) Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.processors[registryKey{typ, method}]; ok {
		return p
	}
	if p, ok := r.processors[registryKey{typ, AnyMethod}]; ok {
		return p
	}
	return r.fallback
}

// DefaultRegistry wires the processors of every supported type and method
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(TypePayment, AnyMethod, PaymentProcessor{})
	r.Register(TypeAuthorize, AnyMethod, AuthorizeProcessor{})
	r.Register(TypeRefund, AnyMethod, RefundProcessor{})
	r.Register(TypeGiftcard, AnyMethod, GiftcardProcessor{})
	r.Register(TypeGroup, AnyMethod, GroupProcessor{})

	r.Register(TypePayment, "klarnakp", NewKlarnaKPProcessor(PaymentProcessor{}))
	r.Register(TypeAuthorize, "klarnakp", NewKlarnaKPProcessor(AuthorizeProcessor{}))
	r.Register(TypePayment, "paypal", PayPalProcessor{})

	r.SetDefault(PaymentProcessor{})
	return r
}
