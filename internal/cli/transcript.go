package cli

import "strings"

func isBlankTranscript(transcript string) bool {
	return strings.TrimSpace(transcript) == ""
}

func noSpeechHint() string {
	return "No speech detected. Check that the file contains audible speech in the selected --language."
}
