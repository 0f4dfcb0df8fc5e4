// Package services defines the [Catalog] interface for remote music catalogs and implements it for YouTube.
//
// # Catalog Interface
//
// A catalog offers two operations: free-text search and stream extraction for a
// canonical track URL. The resolver and library engine depend only on the interface.
//
// # YouTube Implementation
//
// [YouTubeCatalog] communicates with the extraction proxy server wrapping the extractor library.
//
// Requests are rate limited with a token bucket ([rate.Limiter]). Headers captured
// from a browser session (see [shared.CurlHeaders]) are forwarded on every request.
//
// # Error Handling
//
// Catalog errors wrap one of two sentinels from the shared package:
//   - [shared.ErrNetworkFailure] : transport error, timeout, or gateway status (429, 502, 503, 504)
//   - [shared.ErrExtractionFailed] : any other non-2xx status or an undecodable body
//
// # API Mappings
//
//   - GET /api/search?q=&filter=songs : []YouTubeTrack → []models.CatalogEntry
//   - GET /api/streams?url= : YouTubeStreamInfo → StreamInfo
package services
