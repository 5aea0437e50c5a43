package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNilRenderer rejects registering a nil renderer.
	ErrNilRenderer = errors.New("render: renderer is nil")
	// ErrUnnamedRenderer rejects a renderer whose Name() is blank.
	ErrUnnamedRenderer = errors.New("render: renderer has no name")
)

// UnknownRendererError reports a lookup for a name nothing registered under.
type UnknownRendererError struct {
	Name string
}

func (e *UnknownRendererError) Error() string {
	return fmt.Sprintf("render: no renderer named %q", e.Name)
}

// Registry maps renderer names to implementations. A wizard host typically
// fills one at startup and picks a renderer per run; all methods are safe for
// concurrent use after that.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry returns a registry with no renderers.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register files the renderer under its Name(). Registering the same name
// twice fails; replacing a renderer is not supported.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return ErrNilRenderer
	}
	name := strings.TrimSpace(renderer.Name())
	if name == "" {
		return ErrUnnamedRenderer
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.renderers[name]; taken {
		return fmt.Errorf("render: renderer %q registered twice", name)
	}
	r.renderers[name] = renderer
	return nil
}

// MustRegister panics on registration failure, for init-time wiring.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get returns the renderer filed under name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	if !ok {
		return nil, &UnknownRendererError{Name: name}
	}
	return renderer, nil
}

// MustGet panics when the name is unknown.
func (r *Registry) MustGet(name string) Renderer {
	renderer, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return renderer
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[name]
	return ok
}
