package camera

import (
	"fmt"
	"sync"
)

// Registry holds the enumerated devices in discovery order
type Registry struct {
	mu      sync.RWMutex
	devices []Device
}

// NewRegistry creates a registry with the given devices
func NewRegistry(devices ...Device) *Registry {
	r := &Registry{}
	for _, d := range devices {
		r.Add(d)
	}
	return r
}

// Add registers a device, replacing an existing one with the same ID
func (r *Registry) Add(d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.devices {
		if existing.ID() == d.ID() {
			r.devices[i] = d
			return
		}
	}
	r.devices = append(r.devices, d)
}

// Devices returns the registered devices
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Lookup finds a device by ID
func (r *Registry) Lookup(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

// Select returns the preferred device when present, otherwise the first one
func (r *Registry) Select(preferredID string) (Device, error) {
	if preferredID != "" {
		if d, ok := r.Lookup(preferredID); ok {
			return d, nil
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.devices) == 0 {
		return nil, ErrNoDevices
	}
	return r.devices[0], nil
}

// Label returns a display label, numbering devices that have none
func Label(d Device, index int) string {
	if l := d.Label(); l != "" {
		return l
	}
	return fmt.Sprintf("Camera %d", index+1)
}
