// Package sourcecache persists resolved media sources between runs.
//
// Resolving a source costs an authenticated page fetch per recording, and
// platform pages rarely move within a day. The cache stores each resolved
// locator in SQLite keyed by recording number and serves it back until the
// configured TTL lapses. A stale or missing entry simply falls through to a
// fresh resolution; the cache is never authoritative.
package sourcecache
