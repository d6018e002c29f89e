package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle identifies a spawned instance.
type Handle uint64

// Spawner instantiates prefabs under a named container and destroys them per container.
type Spawner interface {
	Spawn(container, prefab string, position mgl32.Vec3) (Handle, error)
	DestroyAll(container string) error
}

// Instance is one spawned prefab.
type Instance struct {
	Handle    Handle     `json:"handle"`
	Container string     `json:"container"`
	Prefab    string     `json:"prefab"`
	Position  mgl32.Vec3 `json:"position"`
}

// Registry is an in-memory Spawner that keeps instances by handle and by container.
type Registry struct {
	mu          sync.RWMutex
	next        Handle
	instances   map[Handle]*Instance
	byContainer map[string]map[Handle]*Instance
}

func NewRegistry() *Registry {
	return &Registry{
		instances:   make(map[Handle]*Instance),
		byContainer: make(map[string]map[Handle]*Instance),
	}
}

func (r *Registry) Spawn(container, prefab string, position mgl32.Vec3) (Handle, error) {
	if container == "" {
		return 0, fmt.Errorf("spawn %q: container missing", prefab)
	}
	if prefab == "" {
		return 0, fmt.Errorf("spawn into %q: prefab missing", container)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	inst := &Instance{
		Handle:    r.next,
		Container: container,
		Prefab:    prefab,
		Position:  position,
	}
	r.instances[inst.Handle] = inst

	set := r.byContainer[container]
	if set == nil {
		set = make(map[Handle]*Instance)
		r.byContainer[container] = set
	}
	set[inst.Handle] = inst
	return inst.Handle, nil
}

func (r *Registry) DestroyAll(container string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for handle := range r.byContainer[container] {
		delete(r.instances, handle)
	}
	delete(r.byContainer, container)
	return nil
}

func (r *Registry) Instance(handle Handle) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[handle]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// Instances returns the container's instances in spawn order.
func (r *Registry) Instances(container string) []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byContainer[container]
	if len(set) == 0 {
		return nil
	}
	result := make([]Instance, 0, len(set))
	for _, inst := range set {
		result = append(result, *inst)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Handle < result[j].Handle
	})
	return result
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}
