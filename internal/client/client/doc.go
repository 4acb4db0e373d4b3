// Package client talks to the teamkeeper server and bootstraps local storage.
//
// HTTPClient speaks the JSON API under /api/v1. Every response carries the
// envelope {success, data, errors, msg}; failures come back as *APIError,
// which matches ErrUnauthorized for 401 answers. Transport failures wrap
// ErrUnavailable.
//
// HealthChecker probes the grpc.health.v1 endpoint to tell whether the
// server is online.
//
// InitDatabase opens the local sqlite file and applies the embedded goose
// migrations.
package client
