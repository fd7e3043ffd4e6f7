package unfolding

import "fmt"

// Dispatcher selects the backend serving a method family.
type Dispatcher struct {
	backends map[Family]Backend
}

// NewDispatcher registers the provided backends. Nil entries are ignored.
func NewDispatcher(backends map[Family]Backend) *Dispatcher {
	registered := make(map[Family]Backend, len(backends))
	for family, backend := range backends {
		if backend != nil {
			registered[family] = backend
		}
	}
	return &Dispatcher{backends: registered}
}

// Backend returns the backend for the method's family.
func (dispatcher *Dispatcher) Backend(method Method) (Backend, error) {
	backend, registered := dispatcher.backends[method.Family]
	if !registered {
		return nil, fmt.Errorf(backendNotRegisteredTemplateConstant, ErrBackendNotRegistered, method.Family)
	}
	return backend, nil
}
