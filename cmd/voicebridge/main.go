// voicebridge runs the voice-call bridge: it answers telephony webhooks,
// accepts provider media streams over websocket, and bridges each call to
// the realtime speech service.
//
// Usage:
//
//	voicebridge serve -c config.yaml
//	voicebridge calls recent --user u_123
package main

import (
	"os"

	"github.com/attainly/voicebridge/cmd/voicebridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
