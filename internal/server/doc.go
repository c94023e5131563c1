// Package server runs the pagehooks dev server.
//
// Every request gets a fresh request context carrying the incoming request,
// a response adapter, a fallback to the static public directory and the
// server lookup table. The middleware stage decides whether a page answers
// the request or the fallback does.
package server
