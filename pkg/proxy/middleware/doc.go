// Package middleware provides the HTTP middleware applied in front of the
// proxy and control handlers: panic recovery, request ID assignment,
// structured request logging, and the local credential check.
package middleware
