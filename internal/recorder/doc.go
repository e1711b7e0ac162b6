// Package recorder implements the message transcript writer.
//
// The recorder:
//   - Accepts inbound and outbound messages without blocking the caller
//   - Batches rows and flushes on size or a ticker
//   - Inserts into the ws_messages table with append-only semantics
package recorder
