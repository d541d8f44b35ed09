// Package events provides a small typed publish/subscribe bus.
//
// The session store uses it to announce logouts: a 401 from the backend, an
// explicit `testagent auth logout`, or another process removing the stored
// token all publish a LogoutEvent. Subscribers register a callback and get
// back a function that removes it again.
//
// Delivery is synchronous and in subscription order. Callbacks must not block;
// a subscriber that needs to do slow work should hand the event to its own
// goroutine.
package events
