// Package api implements the HTTP and SSE surface for the chat rooms.
//
// It keeps request parsing, the response envelope, and stream transport
// isolated from the broadcast engine so internal/chat remains the source of
// truth for ordering and delivery.
package api
