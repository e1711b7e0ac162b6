// Package status maintains the coarse connection status state machine on top
// of the proxy's event stream.
//
// The adapter:
//   - Folds fine-grained socket states into five statuses (Connecting, Open,
//     Closing, Closed, Error)
//   - Drives open/close from the active toggle and the configured URL
//   - Rejects sends while not Open with a usage error instead of forwarding
//   - Surfaces the last error as a human-readable string, cleared whenever
//     the status leaves Error
package status
