// Package broker implements the downstream Subscription Broker.
//
// The broker:
//   - Accepts downstream WebSocket connections
//   - Parses "<action>.<channel>.<isin,...>" commands with soft validation
//     (bad commands are logged and ignored, the connection stays open)
//   - Tracks per-instrument subscriber sets, one per channel
//   - Answers subscribe commands once with the current repository snapshot
//   - Relays repository change notifications to matching subscriber sets
//
// Fan-out is isolated per connection: every connection owns a buffered send
// queue and a write pump, so a slow or unresponsive subscriber can never
// stall delivery to the others. The broker's subscription lock is separate
// from the repository's data lock and the two are never held together.
package broker
