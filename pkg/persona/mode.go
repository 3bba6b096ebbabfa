package persona

import "github.com/attainly/voicebridge/pkg/callstore"

// Mode is the resolved call variant. Kind selects the instruction template;
// Topic and TaskRef parameterize it where the template uses them (a
// scolding call names its topic, a reminder call names its task).
type Mode struct {
	Kind    callstore.CallType
	Topic   string
	TaskRef string
}

// ParseMode builds a Mode from the stream-connect custom parameters.
// An unknown or missing kind falls back to reflection, the generic
// conversation mode.
func ParseMode(params map[string]string) Mode {
	kind := callstore.CallType(params["callMode"])
	switch kind {
	case callstore.CallReflection, callstore.CallReminder, callstore.CallBriefing,
		callstore.CallScolding, callstore.CallWakeUp, callstore.CallCheckIn:
	default:
		kind = callstore.CallReflection
	}
	return Mode{
		Kind:    kind,
		Topic:   params["topic"],
		TaskRef: params["taskRef"],
	}
}
