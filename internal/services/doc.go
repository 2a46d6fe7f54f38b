// Package services implements the client for the media manager's JSON HTTP API.
//
// # Client
//
// [Client] wraps an [http.Client] with the back end base URL, an optional client-side
// rate limiter (golang.org/x/time/rate) and a per-request X-Request-ID header.
// It implements [API], the union of [DeviceService] and [LibraryService].
//
// # Envelopes
//
// List endpoints answer either with a bare array or with an object holding the array
// under a named field ("devices", "playlists", "tracks", "albums", ...).
// Every list response is decoded through [Envelope], which records the [Shape] it saw
// and hands back a plain slice. Nothing downstream inspects raw response shapes.
//
// # Uploads
//
// [Client.Upload] streams a single file as multipart form data (field "files") through
// an [io.Pipe], reporting bytes sent through a [ProgressFunc].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrInvalidResponse] : a 2xx body that is not the expected JSON
//
// Non-2xx responses additionally carry an [*APIError] with the status and the server's
// message (taken from "error", "detail" or "message"); use [StatusOf] and [MessageOf].
package services
