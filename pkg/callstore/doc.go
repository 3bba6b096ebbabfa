// Package callstore persists call records and interactions.
//
// A CallRecord is the cross-lifecycle row for one call: created by the
// scheduler before an outbound call exists, or by the finalizer after an
// inbound call ends. Its status moves one way through
// scheduled -> in-progress -> completed|failed; once terminal, only
// summary/outcome enrichment may touch it.
//
// An Interaction is an append-only log entry written exactly once per
// finished call: user, call type, full transcript, duration.
//
// Storage is BadgerDB with JSON values. Keys are path-shaped with a ':'
// separator: call:<userID>:<recordID> and inter:<userID>:<interactionID>.
// An in-memory badger instance backs tests.
package callstore
