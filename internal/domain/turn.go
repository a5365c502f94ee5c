package domain

import (
	"strings"
	"time"
)

type Speaker string

// Persisted speaker labels. They also appear verbatim in the prompt history.
const (
	SpeakerUser      Speaker = "You"
	SpeakerAssistant Speaker = "LLM"
)

type Turn struct {
	Speaker Speaker `json:"speaker"`
	Message string  `json:"message"`
}

func UserTurn(message string) Turn {
	return Turn{Speaker: SpeakerUser, Message: message}
}

func AssistantTurn(message string) Turn {
	return Turn{Speaker: SpeakerAssistant, Message: message}
}

// Recording is a finished audio capture, WAV encoded.
type Recording struct {
	Data     []byte
	Path     string
	Duration time.Duration
}

// Credential storage keys.
const (
	TranscriptionKeyName = "lemonFoxApiKey"
	ChatKeyName          = "openRouterApiKey"
)

type Credentials struct {
	TranscriptionKey string `json:"lemonFoxApiKey"`
	ChatKey          string `json:"openRouterApiKey"`
}

// Complete reports whether both keys are present. Blank values count as absent.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.TranscriptionKey) != "" && strings.TrimSpace(c.ChatKey) != ""
}
