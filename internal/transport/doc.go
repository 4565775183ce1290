// Package transport wraps net/http for fetching bundle resources relative to
// a configured base URL.
//
// The client applies the configured request headers, a fixed per-request
// timeout, and the TLS verification toggle, and reports every response as a
// status plus body. It never interprets status codes beyond that; retry and
// fallback policy belongs to the callers.
package transport
