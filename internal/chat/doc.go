// Package chat implements the per-room message broadcast engine.
//
// Each room owns an append-only message log and a set of live subscribers
// behind a single serialization point, so every observer of a room sees one
// total message order. History replay and live fan-out hand off without loss
// or duplication, and a slow consumer is disconnected rather than allowed to
// stall the publisher or other subscribers.
package chat
