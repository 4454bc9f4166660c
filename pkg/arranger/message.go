package arranger

import (
	"github.com/orbweave/orbweave/pkg/layout"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

// Frame types exchanged with an arrangement worker. The JSON shape is the
// wire contract mind-map clients already speak: one rearrange frame in,
// then a stream of progress frames and exactly one complete or error
// frame out.
const (
	MessageRearrange = "rearrange"
	MessageProgress  = "progress"
	MessageComplete  = "complete"
	MessageError     = "error"
)

// Request is the payload of a rearrange frame: the layout anchor, the
// full entry list, and the full connection list.
type Request struct {
	RootEntry   mindmap.Entry        `json:"rootEntry"`
	Entries     []mindmap.Entry      `json:"entries"`
	Connections []mindmap.Connection `json:"connections"`
}

// RequestFromMap builds a request from a serialized mind map.
// Returns false if the map has no resolvable root.
func RequestFromMap(m *mindmap.MindMap) (Request, bool) {
	root, ok := m.Root()
	if !ok {
		return Request{}, false
	}
	return Request{
		RootEntry:   root,
		Entries:     m.Entries,
		Connections: m.Connections,
	}, true
}

// Message is one transport frame. It is a discriminated union: Type
// selects which of the remaining fields is populated.
//
//	"rearrange": Data
//	"progress":  Progress (fraction in [0, 1])
//	"complete":  Result
//	"error":     Error (human-readable description)
type Message struct {
	Type     string         `json:"type"`
	Data     *Request       `json:"data,omitempty"`
	Progress float64        `json:"progress,omitempty"`
	Result   *layout.Result `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}
