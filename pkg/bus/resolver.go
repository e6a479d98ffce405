package bus

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry is a Resolver backed by a simple type->instance map, for
// applications that construct their handlers once at startup (the common
// case). Larger applications may supply their own Resolver backed by a DI
// container instead.
type Registry struct {
	mu        sync.RWMutex
	instances map[reflect.Type]any
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[reflect.Type]any)}
}

// RegisterHandler registers instance as the resolution target for H;
// instance must implement Subscriber or RequestHandler.
func RegisterHandler[H any](r *Registry, instance H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[typeOf[H]()] = instance
}

// Resolve implements Resolver.
func (r *Registry) Resolve(handlerType reflect.Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.instances[handlerType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for type %s", handlerType)
	}
	return instance, nil
}
