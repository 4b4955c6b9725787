package history

import "time"

// EventType classifies a routing event.
type EventType string

const (
	// EventBan records an endpoint entering the banned state after a
	// forwarding or probe failure.
	EventBan EventType = "ban"

	// EventRecover records an endpoint returning to the healthy state
	// early via a successful probe.
	EventRecover EventType = "recover"

	// EventReconfigure records a generation swap.
	EventReconfigure EventType = "reconfigure"

	// EventExhaustion records a request that failed after every candidate
	// endpoint was banned or tried.
	EventExhaustion EventType = "exhaustion"
)

// Event is one recorded routing event.
type Event struct {
	// ID is a unique event identifier (UUID).
	ID string `json:"id"`

	// Time is when the event occurred.
	Time time.Time `json:"time"`

	// Type classifies the event.
	Type EventType `json:"type"`

	// Endpoint is the endpoint name, when the event concerns one.
	Endpoint string `json:"endpoint,omitempty"`

	// Generation is the generation id active when the event occurred.
	Generation int64 `json:"generation"`

	// Detail is a human-readable description (failure reason, endpoint
	// counts, attempted endpoints).
	Detail string `json:"detail,omitempty"`
}
