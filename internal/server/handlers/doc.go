// Package handlers contains HTTP handlers for the texbuilder HTTP API.
//
// This package provides handlers for:
//   - Compiling, linting and normalizing records posted as JSON
//   - Triggering builds and reading the build history
//   - Health endpoints
//   - Shared response helper functions
//
// Failures are reported through the foundation/errors HTTPErrorAdapter so
// every endpoint returns the same error payload, and successful bodies use
// the types in server/responses.
package handlers
