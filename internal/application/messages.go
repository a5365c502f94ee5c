package application

import (
	"errors"

	"voice-chat/internal/domain"
)

// User-facing messages shown for a failed action.
const (
	MsgMissingCredentials = "API-Schlüssel fehlen. Bitte gib die API-Schlüssel in den Einstellungen ein."
	MsgPermissionDenied   = "Mikrofonzugriff verweigert. Bitte erlaube den Zugriff auf das Mikrofon."
	MsgStartRecording     = "Failed to start recording"
	MsgStopRecording      = "Failed to stop recording"
	MsgTurnInProgress     = "Bitte warte, die letzte Nachricht wird noch verarbeitet."
	MsgGeneric            = "An error occurred. Please try again."
)

// Capture error reasons.
const (
	ReasonStart = "start recording"
	ReasonStop  = "stop recording"
)

// UserMessage converts any failure at the turn boundary into a single display string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, domain.ErrTurnInProgress) {
		return MsgTurnInProgress
	}

	var e *domain.Error
	if !errors.As(err, &e) {
		return MsgGeneric
	}

	switch e.Kind {
	case domain.KindConfiguration:
		return MsgMissingCredentials
	case domain.KindPermission:
		return MsgPermissionDenied
	case domain.KindCapture:
		if e.Reason == ReasonStart {
			return MsgStartRecording
		}
		return MsgStopRecording
	default:
		return MsgGeneric
	}
}
