// Package server is the local HTTP stream server of the playback engine.
//
// # Endpoints
//
//   - GET /stream?locator=<locator> : byte-range read through the data source
//   - GET /queue : the active queue as JSON
//   - GET /queue.m3u : the active queue as an extended M3U playlist
//   - GET /queue/{index}/stream : byte-range read of one queue entry
//   - GET /healthz, GET /metrics
//
// Remote entries are resolved on the first read of their bytes, never when the
// queue is set. A player that follows the M3U playlist therefore triggers one
// resolution per remote track, shared by concurrent readers.
//
// # Ranges
//
// A single "bytes=a-b" or "bytes=a-" range is honoured with 206 Partial Content.
// Requests without a Range header get 200. Resolution and upstream failures map
// to 502, missing local files and locators without an id to 404.
package server
