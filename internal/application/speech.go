package application

import (
	"context"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, apiKey string, audio []byte) (string, error)
}

type ChatCompleter interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

// Speaker reads text aloud. Implementations must not block until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string, rate float64) error
}

// NoopSpeaker is used when no speech engine is configured.
type NoopSpeaker struct{}

func (NoopSpeaker) Speak(_ context.Context, _ string, _ float64) error {
	return nil
}
