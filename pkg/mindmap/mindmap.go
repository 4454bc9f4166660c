// Package mindmap defines the mind-map graph model and its serialization.
//
// A mind map is a flat list of entries (nodes with 3D positions) joined by
// undirected connections, with one entry designated as the root. The
// format is JSON and designed for round-trip fidelity: import → arrange →
// export → re-import preserves every field the engine does not touch.
//
// The package also provides the graph helpers the layout engine builds on:
// adjacency construction, reachability, and deep cloning.
package mindmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a mind map to pretty-printed JSON bytes.
// Entries are sorted by ID for deterministic output.
func Marshal(m *MindMap) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a validated mind map.
func Unmarshal(data []byte) (*MindMap, error) {
	return Read(bytes.NewReader(data))
}

// Write writes a mind map as JSON to an io.Writer.
func Write(m *MindMap, w io.Writer) error {
	return writeTo(m, w)
}

// WriteFile writes a mind map to a JSON file with 0644 permissions.
func WriteFile(m *MindMap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(m, f)
}

// Read decodes a JSON mind map from an io.Reader and validates it.
func Read(r io.Reader) (*MindMap, error) {
	var m MindMap
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadFile reads a JSON file and returns the decoded mind map.
// Returns validation errors for malformed maps.
func ReadFile(path string) (*MindMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func writeTo(m *MindMap, w io.Writer) error {
	out := *m
	out.Entries = slices.Clone(m.Entries)
	slices.SortFunc(out.Entries, func(a, b Entry) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// =============================================================================
// Validation and Lookup
// =============================================================================

// Validate checks structural integrity and returns nil if valid.
// It verifies that every entry has a unique non-empty ID, that RootID (when
// set) names an existing entry, and that all connection endpoints exist.
func (m *MindMap) Validate() error {
	seen := make(map[string]struct{}, len(m.Entries))
	for _, e := range m.Entries {
		if e.ID == "" {
			return ErrInvalidEntryID
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntryID, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if m.RootID != "" {
		if _, ok := seen[m.RootID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoot, m.RootID)
		}
	}
	for _, c := range m.Connections {
		if _, ok := seen[c.SourceID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEndpoint, c.SourceID)
		}
		if _, ok := seen[c.TargetID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEndpoint, c.TargetID)
		}
	}
	return nil
}

// Entry returns the entry with the given ID and true, or a zero entry and
// false if not found.
func (m *MindMap) Entry(id string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Root returns the designated root entry and true, or false if RootID is
// empty or does not name an entry.
func (m *MindMap) Root() (Entry, bool) {
	if m.RootID == "" {
		return Entry{}, false
	}
	return m.Entry(m.RootID)
}

// Clone returns a deep copy of the mind map. Arrangement operates on a
// clone so caller-owned data is never mutated.
func (m *MindMap) Clone() *MindMap {
	out := &MindMap{
		RootID:      m.RootID,
		Entries:     make([]Entry, len(m.Entries)),
		Connections: make([]Connection, len(m.Connections)),
	}
	for i, e := range m.Entries {
		out.Entries[i] = e.Clone()
	}
	copy(out.Connections, m.Connections)
	return out
}

// =============================================================================
// Graph Helpers
// =============================================================================

// Adjacency builds an undirected adjacency list from a connection list.
// Each connection contributes a neighbor in both directions; insertion
// order follows the connection list, which is the traversal order the
// scheduler falls back to on large graphs.
func Adjacency(conns []Connection) map[string][]string {
	adj := make(map[string][]string)
	for _, c := range conns {
		adj[c.SourceID] = append(adj[c.SourceID], c.TargetID)
		adj[c.TargetID] = append(adj[c.TargetID], c.SourceID)
	}
	return adj
}

// Reachable returns the set of entry IDs reachable from start through the
// connection graph, including start itself. Cycles and diamonds are safe.
func Reachable(start string, conns []Connection) map[string]struct{} {
	adj := Adjacency(conns)
	seen := map[string]struct{}{start: {}}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range adj[id] {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			stack = append(stack, n)
		}
	}
	return seen
}
