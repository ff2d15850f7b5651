package cluster

import "slices"

// Snapshot is a point-in-time copy of a store's collapsed and hidden sets.
// The zero value has nothing collapsed and nothing hidden.
type Snapshot struct {
	collapsed set
	hidden    set
}

// NewSnapshot builds a snapshot from explicit id lists. Ids listed as
// hidden are also marked collapsed.
func NewSnapshot(collapsed, hidden []string) Snapshot {
	snap := Snapshot{collapsed: make(set), hidden: make(set)}
	for _, id := range collapsed {
		snap.collapsed[id] = struct{}{}
	}
	for _, id := range hidden {
		snap.hidden[id] = struct{}{}
		snap.collapsed[id] = struct{}{}
	}
	return snap
}

// Collapsed reports whether id was collapsed.
func (s Snapshot) Collapsed(id string) bool {
	_, ok := s.collapsed[id]
	return ok
}

// Hidden reports whether id was hidden.
func (s Snapshot) Hidden(id string) bool {
	_, ok := s.hidden[id]
	return ok
}

// CollapsedIDs returns the collapsed ids sorted.
func (s Snapshot) CollapsedIDs() []string { return sortedKeys(s.collapsed) }

// HiddenIDs returns the hidden ids sorted.
func (s Snapshot) HiddenIDs() []string { return sortedKeys(s.hidden) }

func sortedKeys(m set) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
