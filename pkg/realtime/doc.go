// Package realtime is a websocket client for the streaming speech-to-speech
// service the bridge talks to.
//
// A Conn owns exactly one duplex connection. After dialing, the caller sends
// one session configuration (instructions, tools, audio format) and then
// streams caller audio in with AppendAudioBase64. Server events arrive
// through the Events iterator: audio deltas, transcript deltas, speech-onset
// signals, and completed function-call items.
//
//	client := realtime.NewClient(apiKey)
//	conn, err := client.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	if err := conn.UpdateSession(cfg); err != nil {
//	    return err
//	}
//	for ev, err := range conn.Events() {
//	    if err != nil {
//	        return err
//	    }
//	    switch ev.Type {
//	    case realtime.EventOutputAudioDelta:
//	        play(ev.Audio)
//	    }
//	}
//
// A dropped connection is terminal for that call; the bridge never retries,
// since a live call cannot be resumed transparently.
package realtime
