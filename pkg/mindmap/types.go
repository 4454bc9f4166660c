package mindmap

import (
	"errors"

	"github.com/orbweave/orbweave/pkg/geom"
)

var (
	// ErrInvalidEntryID is returned by [MindMap.Validate] when an entry has
	// an empty identifier. All entries must have non-empty identifiers.
	ErrInvalidEntryID = errors.New("entry ID must not be empty")

	// ErrDuplicateEntryID is returned by [MindMap.Validate] when two entries
	// share the same identifier. Entry IDs must be unique.
	ErrDuplicateEntryID = errors.New("duplicate entry ID")

	// ErrUnknownRoot is returned by [MindMap.Validate] when RootID does not
	// name an entry in the map.
	ErrUnknownRoot = errors.New("unknown root entry")

	// ErrUnknownEndpoint is returned by [MindMap.Validate] when a connection
	// references an entry that does not exist.
	ErrUnknownEndpoint = errors.New("connection references unknown entry")
)

// Metadata stores arbitrary key-value pairs attached to entries or
// connections. The layout engine never reads it; it is carried through
// arrangement untouched so display data (colors, collapsed state, rich
// text references) survives a round trip.
type Metadata map[string]any

// Entry is a node in the mind map. For layout purposes only ID and
// Position matter; Label and Meta are opaque display data.
type Entry struct {
	ID       string    `json:"id" bson:"id"`
	Label    string    `json:"label,omitempty" bson:"label,omitempty"`
	Position geom.Vec3 `json:"position" bson:"position"`
	Meta     Metadata  `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	if e.Meta != nil {
		out.Meta = make(Metadata, len(e.Meta))
		for k, v := range e.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// Connection is an undirected edge between two entry IDs. The field names
// suggest a direction but the layout engine treats connections
// symmetrically; direction only matters to callers that render arrows.
type Connection struct {
	SourceID string   `json:"sourceId" bson:"sourceid"`
	TargetID string   `json:"targetId" bson:"targetid"`
	Meta     Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Other returns the endpoint opposite to id, and true if id is one of the
// connection's endpoints.
func (c Connection) Other(id string) (string, bool) {
	switch id {
	case c.SourceID:
		return c.TargetID, true
	case c.TargetID:
		return c.SourceID, true
	}
	return "", false
}

// MindMap is the canonical serialization format for a mind-map graph:
// a flat entry list, an undirected connection list, and a designated root.
// It is the input shape consumed by the layout engine and the shape
// exchanged with clients over the API.
type MindMap struct {
	RootID      string       `json:"rootId" bson:"rootid"`
	Entries     []Entry      `json:"entries" bson:"entries"`
	Connections []Connection `json:"connections" bson:"connections"`
}
