package registry

import "sort"

// Snapshot is a serializable view of the registry state. The config layer
// persists and restores it; the registry itself never touches disk.
type Snapshot struct {
	Endpoints []Endpoint        `json:"endpoints" mapstructure:"endpoints"`
	Default   string            `json:"default" mapstructure:"default"`
	Bindings  map[string]string `json:"session_bindings" mapstructure:"session_bindings"`
	Pending   []PendingSession  `json:"pending_sessions" mapstructure:"pending_sessions"`
}

// Snapshot captures the current registry state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	endpoints := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		endpoints = append(endpoints, ep)
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Name < endpoints[j].Name })

	bindings := make(map[string]string, len(r.bindings))
	for k, v := range r.bindings {
		bindings[k] = v
	}

	pending := make([]PendingSession, len(r.pending))
	copy(pending, r.pending)

	return Snapshot{
		Endpoints: endpoints,
		Default:   r.defaultName,
		Bindings:  bindings,
		Pending:   pending,
	}
}

// FromSnapshot builds a registry from persisted state. Bindings that point at
// endpoints missing from the snapshot are discarded rather than restored
// dangling; pending entries for bound sessions are likewise dropped.
func FromSnapshot(s Snapshot) *Registry {
	r := New()
	for _, ep := range s.Endpoints {
		if ep.Name == "" {
			continue
		}
		r.endpoints[ep.Name] = ep
	}
	if _, ok := r.endpoints[s.Default]; ok {
		r.defaultName = s.Default
	}
	for sid, name := range s.Bindings {
		if _, ok := r.endpoints[name]; ok {
			r.bindings[sid] = name
		}
	}
	for _, p := range s.Pending {
		if p.SessionID == "" {
			continue
		}
		if _, bound := r.bindings[p.SessionID]; bound {
			continue
		}
		r.pending = append(r.pending, p)
	}
	return r
}
