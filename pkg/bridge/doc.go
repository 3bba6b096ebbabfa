// Package bridge relays one live phone call between the telephony
// provider's framed media stream and the realtime speech service.
//
// Per call it owns a Session: the transcript, the audio reassembly buffer,
// the paced frame queue, and the interruption state. Three goroutines serve
// a session: the telephony read loop, the speech-service event loop, and
// the frame pacer tick. All mutate session state under a single session
// mutex; sessions share nothing with each other except the registry they
// are listed in.
//
// The pacer is the only scheduled work. Speech audio arrives in bursty,
// variably sized chunks; the pacer reslices it into fixed 20 ms frames and
// releases at most one frame per tick, so playback runs at real time and a
// barge-in can cancel everything still queued.
package bridge
