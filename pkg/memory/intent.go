package memory

import "strings"

type intentRule struct {
	intent  Intent
	markers []string
}

// Evaluated in order; greetings win even when phrased as a question.
var intentRules = []intentRule{
	{IntentGreeting, []string{"hello", "hi", "hey", "namaste"}},
	{IntentFarewell, []string{"bye", "goodbye", "see you"}},
	{IntentGratitude, []string{"thank", "thanks"}},
	{IntentQuestion, []string{"?", "what", "when", "where", "who", "why", "how"}},
	{IntentCommand, []string{"open", "search", "play", "type"}},
	{IntentInformationRequest, []string{"tell me", "explain", "describe"}},
}

var followUpMarkers = []string{
	"also", "and", "what about", "how about", "tell me more",
	"continue", "go on", "anything else", "more", "else",
}

// ClassifyIntent maps text to the first intent whose marker it contains.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		if containsAny(lower, rule.markers) {
			return rule.intent
		}
	}
	return IntentStatement
}

// IsFollowUp reports whether text continues the previous exchange.
func IsFollowUp(text string) bool {
	return containsAny(strings.ToLower(text), followUpMarkers)
}

// IsSmallTalk reports intents that may be answered from stored examples
// without reaching the confidence threshold.
func IsSmallTalk(intent Intent) bool {
	switch intent {
	case IntentGreeting, IntentFarewell, IntentGratitude:
		return true
	}
	return false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
