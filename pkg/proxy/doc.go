// Package proxy implements the forwarding handler: the per-request session
// that pins a generation, walks endpoint candidates via the configured
// strategy, rewrites credentials, and streams upstream responses back to
// the caller.
package proxy
