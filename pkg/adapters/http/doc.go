// Package http serves a flowstory session over HTTP with chi.
//
// Requests (selection changes, generation) are accepted immediately and run in
// the background; their progress is delivered to every client of GET /events.
package http
