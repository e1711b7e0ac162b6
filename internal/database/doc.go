// Package database provides the connection pool for the message transcript
// store.
//
// The transcript recorder writes to a single PostgreSQL table (ws_messages);
// cmd/transcriptprune handles retention on the same table.
package database
