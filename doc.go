// Package authclient implements the client half of an email/password + OTP
// authentication flow: a session state machine with durable persistence, a
// typed REST client for the auth backend, and a token-injecting gateway for
// protected calls.
//
// Session lifecycle:
//   - SessionManager owns the session aggregate. The externally visible
//     state (anonymous, pending verification, authenticated) is derived from
//     which fields are held, never stored on its own. Mutating operations
//     are serialized behind a single lock so persisted writes cannot
//     interleave.
//   - Every mutation is written through to a SessionStore before the
//     operation returns; persistence is best effort and in-memory state
//     stays authoritative for the process lifetime.
//   - Restore hydrates the session once at startup and flips Ready exactly
//     once. A corrupt or unreadable field degrades to absent; restoration
//     always lands in a decidable state.
//
// Gateway:
//   - FetchWithAuth/Do/Transport inject the current bearer token into
//     outgoing requests and tear the session down when the backend answers
//     401. The raw response is always handed back to the caller.
//
// Stores live under store/: a mutex-guarded in-memory implementation and a
// SQLite-backed one built on Bun for real devices.
package authclient
