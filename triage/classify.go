package triage

import (
	"fmt"
	"strings"
)

// Output is the result of classifying one message.
type Output struct {
	IsVital  bool
	Intent   string
	Urgency  uint8
	Flags    uint8
	Count    int
	Location string
}

const (
	// FlagNeedsLocation marks a vital message whose text carries no
	// recognizable location cue.
	FlagNeedsLocation uint8 = 1 << 0
	// FlagNeedsConfirmation marks intents whose delivery should be
	// confirmed back to the sender beyond a plain ACK.
	FlagNeedsConfirmation uint8 = 1 << 1
)

var confirmationIntents = map[string]bool{
	IntentDanger:   true,
	IntentEvac:     true,
	IntentDisaster: true,
}

// Classify normalizes text, extracts its feature vector, runs the three
// decision trees, and (for vital messages) derives flags, count and
// location. Classification is total: it never fails.
func Classify(text string) Output {
	text = truncateInput(text)
	norm := normalize(text)
	v := featureVector(text, norm)

	if !vitalPredict(v) {
		return Output{IsVital: false, Intent: IntentChat}
	}

	intent := intentPredict(v)
	urgency := urgencyPredict(v)

	out := Output{
		IsVital: true,
		Intent:  intent,
		Urgency: urgency,
		Count:   clampCount(firstDigitRun(norm)),
	}

	if !hasSubstring(norm, locationCues) {
		out.Flags |= FlagNeedsLocation
	}
	if confirmationIntents[intent] {
		out.Flags |= FlagNeedsConfirmation
	}

	if loc, ok := firstSubstring(norm, locationTokens); ok {
		out.Location = loc
	} else {
		out.Location = "unknown"
	}

	return out
}

func clampCount(n int) int {
	if n > 255 {
		return 255
	}
	return n
}

// MaxPayloadBytes bounds the wire payload produced by Payload.
const MaxPayloadBytes = 48

// Payload renders the vital wire form INTENT|U<urgency>|F<flags>|N<count>|L<location>,
// truncated to MaxPayloadBytes. Calling it on a non-vital Output is a
// caller error; the node never does so.
func (o Output) Payload() string {
	p := fmt.Sprintf("%s|U%d|F%d|N%d|L%s", o.Intent, clampUrgency(o.Urgency), o.Flags, o.Count, o.Location)
	if len(p) > MaxPayloadBytes {
		p = p[:MaxPayloadBytes]
	}
	return p
}

func clampUrgency(u uint8) uint8 {
	if u > 3 {
		return 3
	}
	return u
}

// Body returns the DATA frame body for this classification result: the
// compact payload for vital messages, or the raw text truncated to
// MaxPayloadBytes for chat.
func Body(text string, out Output) []byte {
	if out.IsVital {
		return []byte(out.Payload())
	}
	t := strings.TrimSpace(text)
	if len(t) > MaxPayloadBytes {
		t = t[:MaxPayloadBytes]
	}
	return []byte(t)
}

var intentSet = func() map[string]bool {
	m := make(map[string]bool, len(intentLabels))
	for _, i := range intentLabels {
		m[i] = true
	}
	return m
}()

// ParsePayload recognizes a received DATA body as a vital wire payload
// (INTENT|U<u>|F<f>|N<n>|L<loc>) and reports its intent/urgency, for the
// receiving node's message history — it does not re-run classification,
// since the sender already did and the network carries only the compact
// form. A body that isn't a recognizable payload (plain chat text) reports
// vital=false, intent=CHAT.
func ParsePayload(body []byte) (vital bool, intent string, urgency uint8) {
	s := string(body)
	parts := strings.Split(s, "|")
	if len(parts) < 2 || !intentSet[parts[0]] {
		return false, IntentChat, 0
	}
	u := parts[1]
	if len(u) != 2 || u[0] != 'U' || u[1] < '0' || u[1] > '3' {
		return false, IntentChat, 0
	}
	return true, parts[0], u[1] - '0'
}
