package endpoint

import "net/url"

// Definition is one caller-supplied upstream endpoint record, as it arrives
// from the configuration file or a reconfigure call. Definitions are raw
// input; the Registry validates and filters them into Targets.
type Definition struct {
	// Name identifies the endpoint in logs, metrics, and status output.
	// Optional; defaults to the base URL host.
	Name string `json:"name"`

	// BaseURL is the upstream base address. Required.
	BaseURL string `json:"base_url"`

	// APIKey is the credential sent to this endpoint. Required.
	APIKey string `json:"api_key"`

	// Order is the endpoint priority; lower values are tried first.
	// Absent order means highest priority (0).
	Order int `json:"order"`

	// Model optionally overrides the model requested from this endpoint.
	Model string `json:"model,omitempty"`
}

// Target is one validated upstream endpoint within a generation.
// Targets are immutable: a reconfiguration replaces the whole generation
// rather than mutating targets in place.
type Target struct {
	// Name is the endpoint's display name.
	Name string

	// BaseURL is the parsed upstream base address.
	BaseURL *url.URL

	// APIKey is the credential sent to this endpoint.
	APIKey string

	// Order is the endpoint priority (lower = tried first).
	Order int

	// Model is the optional model override.
	Model string

	// Index is the target's position within its generation, in priority
	// order. Runtime state is addressed by this index.
	Index int
}
