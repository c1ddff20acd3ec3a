// Package feed implements the upstream ingestion client.
//
// The client:
//   - Holds one long-lived WebSocket connection to the TSETMC push feed
//   - Subscribes once for the full instrument universe ("1.all.<isins>")
//   - Decodes each push frame (identity -> channel -> positional fields)
//   - Forwards typed updates into the Market State Repository
//
// The client only ever holds identities, never instrument records; the
// repository is the single owner of instrument state. Decode failures are
// local: the offending channel or identity entry is skipped and the rest of
// the frame is processed. Reconnection is the caller's concern.
package feed
