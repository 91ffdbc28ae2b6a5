// Package httputil provides the HTTP plumbing shared by the API server and
// the HTTP item source.
//
// # Server Helpers
//
// [WriteJSON] and [WriteError] encode responses. Errors carrying a code
// from package errors are mapped to a status with [errors.HTTPStatus] and
// reported with their user-facing message:
//
//	{"error": "session \"abc\" not found", "code": "SESSION_NOT_FOUND"}
//
// [DecodeJSON] reads a bounded request body and rejects unknown fields.
//
// # Fetching
//
// [Fetch] downloads a document with [Retry]. Network errors, 5xx responses
// and 429 rate limit responses are retried with exponential backoff; other
// failures are returned immediately.
package httputil
