// Package constants defines shared constants for the asset management API.
package constants

// APIBasePath is the base path for all versioned API routes.
const APIBasePath = "/api/v1"

// HTTP header names.
const (
	HeaderContentType   = "Content-Type"
	HeaderActorID       = "X-Actor-Id"
	HeaderAdminUser     = "X-Admin-User"
	HeaderCorrelationID = "X-Correlation-ID"
)

// ContentTypeJSON is the JSON content type value.
const ContentTypeJSON = "application/json"

// ContextKeyCorrelationID keys the correlation identifier in the request
// context.
const ContextKeyCorrelationID = "correlationID"
