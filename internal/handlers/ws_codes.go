// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the event stream.
const (
	BadSubprotocolError = 3000 // Client asked for a subprotocol other than "events".
	HubClosedError      = 3001 // Server dropped the subscription.
)
