package application

import (
	"fmt"
	"strings"

	"voice-chat/internal/domain"
)

const (
	historyLabel    = "Konversationsverlauf:"
	newMessageLabel = "Neue Nachricht:"
)

// BuildPrompt renders the prior turns as "<speaker>: <message>" lines followed by the
// new transcript.
func BuildPrompt(history []domain.Turn, transcript string) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Speaker, turn.Message))
	}
	return fmt.Sprintf("%s\n%s\n\n%s %s", historyLabel, strings.Join(lines, "\n"), newMessageLabel, transcript)
}
