package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

const defaultWidth = 80

var (
	labelStyle = lipgloss.NewStyle().Bold(true)

	userBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4C8BF5")).
			Padding(0, 1)

	assistantBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8A8A8A")).
			Padding(0, 1)

	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A524"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Renderer lays turns out as chat bubbles: the user on the right, the model on the left.
type Renderer struct {
	width int
}

func NewRenderer(width int) *Renderer {
	if width <= 20 {
		width = defaultWidth
	}
	return &Renderer{width: width}
}

func (r *Renderer) Conversation(turns []domain.Turn) string {
	if len(turns) == 0 {
		return dimStyle.Render("Noch keine Nachrichten. Drücke Enter, um die Aufnahme zu starten.")
	}

	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		blocks = append(blocks, r.Turn(turn))
	}
	return strings.Join(blocks, "\n")
}

func (r *Renderer) Turn(turn domain.Turn) string {
	bubbleWidth := r.width * 3 / 4

	style := assistantBubble
	position := lipgloss.Left
	if turn.Speaker == domain.SpeakerUser {
		style = userBubble
		position = lipgloss.Right
	}

	content := labelStyle.Render(string(turn.Speaker)+":") + " " + turn.Message

	// shrink short messages to fit their content
	if w := lipgloss.Width(content) + style.GetHorizontalFrameSize(); w < bubbleWidth {
		bubbleWidth = w
	}

	bubble := style.Width(bubbleWidth - style.GetHorizontalBorderSize()).Render(content)
	return lipgloss.PlaceHorizontal(r.width, position, bubble)
}

func (r *Renderer) Status(state application.SessionState) string {
	var parts []string
	switch {
	case state.TurnInProgress:
		parts = append(parts, "● Verarbeite...")
	case state.Capturing:
		parts = append(parts, "● Aufnahme läuft, Enter zum Senden")
	default:
		parts = append(parts, "○ Bereit, Enter zum Aufnehmen")
	}

	if state.SpeechOutputEnabled {
		parts = append(parts, "Sprachausgabe: an")
	} else {
		parts = append(parts, "Sprachausgabe: aus")
	}

	return statusStyle.Render(strings.Join(parts, "  |  "))
}

func (r *Renderer) Error(msg string) string {
	return errorStyle.Render(msg)
}

func (r *Renderer) Help() string {
	return dimStyle.Render("Enter: Aufnahme starten/stoppen  t: Sprachausgabe  s: Einstellungen  c: Verlauf löschen  q: Beenden")
}
