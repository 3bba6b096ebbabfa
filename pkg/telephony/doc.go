// Package telephony implements the framed media-stream protocol spoken by
// the telephony provider over a websocket connection.
//
// Inbound, the provider sends line-delimited JSON envelopes of four kinds:
// start, media, mark, and stop. Outbound, the bridge sends media frames,
// playback marks, and clear instructions, all tagged with the stream SID
// assigned by the provider at call start.
//
// The package is transport-shaped only; it holds no call state. Session
// bookkeeping lives in package bridge.
package telephony
