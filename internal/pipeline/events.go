package pipeline

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EventType names the server-push events a progress stream can carry.
type EventType string

const (
	EventProcessing EventType = "processing"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
	EventPing       EventType = "ping"
)

// Event is one decoded push event from a document's progress stream.
type Event struct {
	Type    EventType
	Payload EventPayload
}

// EventPayload is the decoded body of a push event. Fields are best-effort:
// the backend emits JSON, occasionally wrapped in an extra layer of quotes,
// and sometimes plain text.
type EventPayload struct {
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	Progress         float64 `json:"progress"`
	DBID             string  `json:"dbId"`
	AnalysisComplete bool    `json:"analysisComplete"`

	// Raw preserves the payload exactly as received.
	Raw string `json:"-"`
}

// DecodePayload decodes a push-event payload tolerantly: strict JSON first,
// then one layer of quote-stripping, otherwise the payload is kept as an
// opaque message. Applied uniformly at the stream boundary so loose backend
// encoding is handled in exactly one place.
func DecodePayload(data []byte) EventPayload {
	raw := string(data)

	var p EventPayload
	if err := json.Unmarshal(data, &p); err == nil {
		p.Raw = raw
		return p
	}

	if inner, err := strconv.Unquote(raw); err == nil {
		var q EventPayload
		if err := json.Unmarshal([]byte(inner), &q); err == nil {
			q.Raw = raw
			return q
		}
		return EventPayload{Message: inner, Raw: raw}
	}

	return EventPayload{Message: strings.TrimSpace(raw), Raw: raw}
}
