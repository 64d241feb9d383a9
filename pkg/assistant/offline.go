package assistant

import "strings"

type offlineRule struct {
	markers []string
	reply   string
}

// offlineRules are checked in order against the lowercased utterance.
var offlineRules = []offlineRule{
	{[]string{"hello", "hi", "hey"}, "Hello! I am currently operating in offline mode, but I am still here to help."},
	{[]string{"how are you"}, "I am functioning at 100% efficiency on local systems."},
	{[]string{"who are you", "your name"}, "I am Nexa. Even without the cloud, I am your assistant."},
	{[]string{"joke"}, "Why do programmers prefer dark mode? Because light attracts bugs! (Offline joke)"},
	{[]string{"thank"}, "You are welcome!"},
	{[]string{"bye", "goodbye"}, "Goodbye! Systems entering standby."},
}

const offlineDefault = "I am currently in offline mode. I can still Open Apps (Notepad, Chrome), Search Google, Play YouTube, and tell the Time."

// OfflineReply answers without any network access. It always returns text.
func OfflineReply(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range offlineRules {
		for _, m := range rule.markers {
			if strings.Contains(lower, m) {
				return rule.reply
			}
		}
	}
	return offlineDefault
}
