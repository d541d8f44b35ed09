// Package session implements the persisted client session: the signed-in
// user, the current project and the bearer token.
//
// Values live in a Storage, by default a FileStorage under
// ~/.config/testagent/session with one file per key:
//
//	auth_token          bearer token (plain text)
//	auth_token_expiry   RFC 3339 expiry, when the backend reported one
//	user                JSON user profile
//	project             JSON current project
//
// The Store is the only writer. It hydrates on construction, tolerating
// missing or malformed files, and writes through on every mutation.
//
// # Logout notifications
//
// Logout purges the token and user and publishes an events.LogoutEvent.
// The HTTP gateway calls it on every 401 response; the CLI calls it on an
// explicit logout. Watch extends this across processes: if another
// invocation removes the token file, watchers publish LogoutExternal.
package session
