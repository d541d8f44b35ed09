// Package gateway is the single HTTP client every backend adapter goes
// through.
//
// Outgoing requests get the session's bearer token (when one is stored), a
// JSON Accept header and an X-Request-ID. Responses are normalized:
//
//   - no response at all: *APIError of KindNetwork with MessageNetwork;
//   - 401: the session is logged out (token and user purged, one LogoutEvent
//     published) and an *APIError of KindUnauthorized is returned;
//   - any other non-2xx: *APIError of KindServer whose Message is the
//     server's "detail" when present, MessageServer otherwise.
//
// Nothing is retried or cached. Every call takes a context; canceling it
// aborts the HTTP request.
package gateway
