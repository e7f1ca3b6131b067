// Package cache provides an optional SQLite-backed store for GET
// responses, keyed by request URL and User-Agent.
//
// The cache is a pass-through collaborator of the fetcher: on a fresh hit
// the stored response is replayed without network I/O, on a miss the
// fetcher falls through to the real request and stores the result.
// Entries expire after a fixed TTL measured from the original fetch time.
//
// Caching is strictly best-effort. A store that fails to open disables
// itself (the caller logs a warning and crawls uncached), and read/write
// errors at runtime degrade to cache misses rather than failing a fetch.
package cache
