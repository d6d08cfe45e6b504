package session

import (
	"sync"

	"github.com/google/uuid"
)

// HandlePrefix marks display handles issued by a Registry
const HandlePrefix = "blob:"

// Registry issues display handles for captured blobs and tracks their
// release. A handle is released at most once.
type Registry struct {
	mu      sync.Mutex
	live    map[string]struct{}
	revoked map[string]struct{}
}

// NewRegistry creates an empty handle registry
func NewRegistry() *Registry {
	return &Registry{
		live:    make(map[string]struct{}),
		revoked: make(map[string]struct{}),
	}
}

// Issue returns a new live handle
func (r *Registry) Issue() string {
	h := HandlePrefix + uuid.NewString()
	r.mu.Lock()
	r.live[h] = struct{}{}
	r.mu.Unlock()
	return h
}

// Revoke releases a live handle. It reports false for unknown or already
// released handles.
func (r *Registry) Revoke(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[handle]; !ok {
		return false
	}
	delete(r.live, handle)
	r.revoked[handle] = struct{}{}
	return true
}

// Revoked reports whether handle was issued here and has been released
func (r *Registry) Revoked(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[handle]
	return ok
}

// Live returns the number of handles not yet released
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
