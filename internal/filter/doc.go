// Package filter drives the continuation analysis over a whole dataset.
//
// A run is a pure, single-pass pipeline:
//
//  1. Build the endpoint index once over all features.
//  2. Classify every junction with at least two non-degenerate members.
//  3. Union the features that appear in any qualifying pair.
//  4. Emit them in original input order.
//
// There is no intermediate state and no randomness; the same features and
// Options always produce the same Result. Map iteration is never used to
// order output.
package filter
