package assistant

import (
	"strings"
)

// Spoken responses.
const (
	Introduction = "I am Srishti. How may I assist you?"
	Farewell     = "Goodbye!"

	MsgDidntCatch     = "I didn't catch that. Could you please repeat?"
	MsgNoTextResponse = "I couldn't generate a text response for that."
	MsgOnlineTrouble  = "I'm having trouble connecting to my online services."

	MsgCachedPrefix  = "I remember you asked that before. Here is the answer: "
	MsgInitializing  = "My offline capabilities are still initializing. Please try again in a moment."
	MsgOfflineUnsure = "I'm not sure how to handle that offline."

	MsgLiveStarted        = "Live assistance has been started."
	MsgLiveAlreadyRunning = "Live assistance is already running."
	MsgLiveStopping       = "Stopping live assistance."
	MsgLiveStopped        = "Live assistance has been stopped."
	MsgLiveNotRunning     = "Live assistance is not currently running."
	MsgLiveNoModel        = "I can't start the live assistance because the detection model is missing."
	MsgLiveNoCamera       = "I'm having trouble accessing the webcam."
)

// Voice commands.
const (
	cmdStartLive = "start live assistance"
	cmdStopLive  = "stop live assistance"
)

var exitWords = []string{"goodbye", "exit", "quit"}

// Greeting returns the time-of-day greeting for hour (0-23).
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good Morning!"
	case hour >= 12 && hour < 18:
		return "Good Afternoon!"
	default:
		return "Good Evening!"
	}
}

// IsExit reports whether query contains an exit word.
func IsExit(query string) bool {
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?")
		for _, exit := range exitWords {
			if w == exit {
				return true
			}
		}
	}
	return false
}
