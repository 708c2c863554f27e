package model

// MaterialEntry is a single registered material and its dense layer index.
type MaterialEntry struct {
	// Name is the material name as written in the material-use directive.
	Name string

	// Index is the dense, zero-based index assigned on first use. It is also the texture array layer for the material.
	Index uint32
}

// MaterialRegistry is an insertion-ordered mapping from material name to a dense integer index.
// Indices are assigned in strictly increasing order of first appearance, starting at 0, and never change.
// The registry also tracks the active material used for subsequently parsed faces.
//
// A registry is mutated only while a mesh is being parsed. Once the parse completes it is treated as
// finalized and may be shared read-only between goroutines.
type MaterialRegistry struct {
	order   []string
	indices map[string]uint32
	active  uint32
}

// NewMaterialRegistry creates an empty MaterialRegistry whose active index is 0 (the no-material default).
//
// Returns:
//   - *MaterialRegistry: the new registry
func NewMaterialRegistry() *MaterialRegistry {
	return &MaterialRegistry{
		indices: make(map[string]uint32),
	}
}

// Use registers name if it has not been seen yet and makes it the active material.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - uint32: the index of the material, assigned on first use
func (r *MaterialRegistry) Use(name string) uint32 {
	idx, ok := r.indices[name]
	if !ok {
		idx = uint32(len(r.order))
		r.indices[name] = idx
		r.order = append(r.order, name)
	}
	r.active = idx
	return idx
}

// Active returns the index of the material set by the most recent Use call, or 0 if Use was never called.
func (r *MaterialRegistry) Active() uint32 {
	return r.active
}

// Index looks up the index assigned to name.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - uint32: the assigned index
//   - bool: false if the name was never registered
func (r *MaterialRegistry) Index(name string) (uint32, bool) {
	idx, ok := r.indices[name]
	return idx, ok
}

// Name returns the material registered at index.
//
// Parameters:
//   - index: the dense material index
//
// Returns:
//   - string: the material name
//   - bool: false if no material has that index
func (r *MaterialRegistry) Name(index uint32) (string, bool) {
	if int(index) >= len(r.order) {
		return "", false
	}
	return r.order[index], true
}

// Len returns the number of distinct registered materials.
func (r *MaterialRegistry) Len() int {
	return len(r.order)
}

// Names returns the registered material names in index order.
func (r *MaterialRegistry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Entries returns every registered material with its index, in index order.
func (r *MaterialRegistry) Entries() []MaterialEntry {
	entries := make([]MaterialEntry, len(r.order))
	for i, name := range r.order {
		entries[i] = MaterialEntry{Name: name, Index: uint32(i)}
	}
	return entries
}
