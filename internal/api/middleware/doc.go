// Package middleware holds the HTTP middleware every API request passes
// through: tracing, admission control and request statistics.
package middleware
