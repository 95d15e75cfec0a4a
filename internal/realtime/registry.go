package realtime

import "sync"

// Registry is the insertion-ordered set of topics the application wants to
// receive, independent of connection state.
type Registry struct {
	mu     sync.RWMutex
	topics map[string]struct{}
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[string]struct{}),
	}
}

// Add inserts topic and reports whether it was not already present.
func (r *Registry) Add(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[topic]; ok {
		return false
	}
	r.topics[topic] = struct{}{}
	r.order = append(r.order, topic)
	return true
}

// Remove deletes topic and reports whether it was present.
func (r *Registry) Remove(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[topic]; !ok {
		return false
	}
	delete(r.topics, topic)
	for i, t := range r.order {
		if t == topic {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether topic is registered.
func (r *Registry) Contains(topic string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.topics[topic]
	return ok
}

// Topics returns a copy of the registered topics in insertion order.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered topics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear removes every topic.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = make(map[string]struct{})
	r.order = nil
}
