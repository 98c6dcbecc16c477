// The [restbase] package is a Go client for PostgREST-style HTTP data backends.
//
// # Client
//
// A [Client] owns the backend base URL, the project API key and the current
// bearer token. It exposes the CRUD surface (Read, Query, GetByID, Insert,
// InsertMany, Update, UpdateByID, Delete, DeleteByID) and the session
// lifecycle (SignUp, SignIn, SignOut). Rows come back as []Record, an opaque
// column-name-to-value mapping; use [github.com/restbase/restbase.go/pkg/marshal]
// to decode rows into your own structs.
//
// Queries are described with structured values rather than hand-built URLs:
// [Filters] for equality predicates and [Options] for selection, ordering and
// pagination. The client translates them into the backend's query-string
// convention (column=eq.value, order=column.direction, limit, offset).
//
// # Sessions
//
// The client starts anonymous: the bearer token equals the API key. A
// successful SignIn swaps in the returned access token; SignOut always swaps
// the API key back, even when the remote revocation fails. Token expiry and
// refresh are the caller's concern; [Session.Claims] exposes the decoded JWT
// claims for that purpose.
//
// # Realtime
//
// The [github.com/restbase/restbase.go/pkg/realtime] package subscribes to
// row-change events (INSERT, UPDATE, DELETE) over the backend's websocket
// endpoint, with automatic reconnection.
package restbase
