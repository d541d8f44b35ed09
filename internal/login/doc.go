// Package login implements the browser half of interactive sign-in.
//
// A CallbackServer listens on the loopback interface for the single
// redirect the backend issues once the user approved the identity
// provider. Flow ties it together: it generates a state value, opens the
// provider URL in the browser, waits for the redirect and checks that the
// state matches before handing the token (or authorization code) back.
//
// The package does not talk to the backend itself; callers exchange the
// result through the Auth adapter and store it in the session.
package login
