// Package proxy isolates a blocking connection on a dedicated worker goroutine.
//
// The proxy:
//   - Accepts open/close/send commands without ever blocking the caller
//   - Executes every command serially inside the worker, which is the only
//     goroutine that touches the connection
//   - Relays connection events back to the caller in emission order
//   - Tears down by waiting for the worker to exit before the connection is
//     released, so the connection is never used after teardown
package proxy
