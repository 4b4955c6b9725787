package endpoint

// ConfigurationError indicates that a supplied endpoint list cannot produce
// a usable generation. It is fatal for the operation that supplied the list:
// at startup it prevents the server from starting, and during reconfiguration
// it leaves the prior generation active.
type ConfigurationError struct {
	// Reason describes why the endpoint list was rejected.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "endpoint configuration error: " + e.Reason
}
