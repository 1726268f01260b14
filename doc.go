// Package addrcache provides a time-bounded set of unique network addresses with LIFO access.
//
// Features:
//
//   - Unique values, duplicates are ignored and keep the deadline of the first insertion.
//   - Most recently added address is served first by Peek and Take.
//   - Take blocks until an address is available and honors context cancellation.
//   - Entries older than max age are swept from the oldest end by a single process-wide scheduler.
//   - Allows logging, stats collection.
package addrcache
