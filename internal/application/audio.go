package application

import (
	"context"

	"voice-chat/internal/domain"
)

// Recorder captures one utterance at a time: Start, then Stop to collect it.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*domain.Recording, error)
	Name() string
}

// PermissionGate asks for microphone access. It is consulted until access is granted once.
type PermissionGate interface {
	Request(ctx context.Context) (bool, error)
}

// AlwaysGranted is used by front ends that receive audio recorded elsewhere.
type AlwaysGranted struct{}

func (AlwaysGranted) Request(_ context.Context) (bool, error) {
	return true, nil
}
