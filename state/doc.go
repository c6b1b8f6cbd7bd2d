// Package state maintains an in-memory mirror of the dashboard model from
// the normalized event stream.
//
// A Tracker attaches to the event client, replays the connect-time snapshot
// from initial_data, and then folds incremental updates (registrations,
// status flips, metrics samples, resource health) into the model. Renderers
// and embedders read through Snapshot, which returns a consistent deep copy,
// so no reader ever observes a half-applied update.
package state
