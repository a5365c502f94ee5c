package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

// Input reads one line at a time. liner.State satisfies it.
type Input interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
}

// Controller is the part of the orchestrator the console drives.
type Controller interface {
	ToggleCapture(ctx context.Context) (*application.TurnResult, error)
	SetSpeechOutput(enabled bool)
	Session() application.SessionState
	Conversation() []domain.Turn
	Credentials(ctx context.Context) (domain.Credentials, error)
	SaveCredentials(ctx context.Context, creds domain.Credentials) error
	ClearConversation(ctx context.Context) error
}

type Console struct {
	in       Input
	out      io.Writer
	ctl      Controller
	renderer *Renderer
	logger   *slog.Logger
}

func New(in Input, out io.Writer, ctl Controller, renderer *Renderer, logger *slog.Logger) *Console {
	return &Console{in: in, out: out, ctl: ctl, renderer: renderer, logger: logger}
}

// Run reads commands until q, Ctrl+C, Ctrl+D or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.println(c.renderer.Conversation(c.ctl.Conversation()))
	c.println(c.renderer.Help())

	for {
		if ctx.Err() != nil {
			return nil
		}

		c.println(c.renderer.Status(c.ctl.Session()))

		input, err := c.in.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				c.println("")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "":
			c.toggle(ctx)
		case "t":
			enabled := !c.ctl.Session().SpeechOutputEnabled
			c.ctl.SetSpeechOutput(enabled)
		case "s":
			c.settings(ctx)
		case "c":
			if err := c.ctl.ClearConversation(ctx); err != nil {
				c.println(c.renderer.Error(application.UserMessage(err)))
				continue
			}
			c.println(c.renderer.Conversation(nil))
		case "h", "?", "help":
			c.println(c.renderer.Help())
		case "q", "quit", "exit":
			return nil
		default:
			c.println(c.renderer.Error("Unbekannter Befehl: " + input))
			c.println(c.renderer.Help())
		}
	}
}

func (c *Console) toggle(ctx context.Context) {
	if c.ctl.Session().Capturing {
		c.println(c.renderer.Status(application.SessionState{TurnInProgress: true}))
	}

	result, err := c.ctl.ToggleCapture(ctx)
	if err != nil {
		c.println(c.renderer.Error(application.UserMessage(err)))
		if kind, ok := domain.KindOf(err); ok && kind == domain.KindConfiguration {
			c.settings(ctx)
		}
		return
	}

	if result == nil {
		return
	}

	c.println(c.renderer.Turn(domain.UserTurn(result.Transcript)))
	c.println(c.renderer.Turn(domain.AssistantTurn(result.Reply)))
}

// settings asks for both keys. An empty answer keeps the stored value.
func (c *Console) settings(ctx context.Context) {
	current, err := c.ctl.Credentials(ctx)
	if err != nil {
		c.logger.Warn("reading credentials", "error", err)
	}

	c.println("Einstellungen")

	next := current
	if next.TranscriptionKey, err = c.askKey("LemonFox API-Schlüssel", current.TranscriptionKey); err != nil {
		return
	}
	if next.ChatKey, err = c.askKey("OpenRouter API-Schlüssel", current.ChatKey); err != nil {
		return
	}

	answer, err := c.in.Prompt("Speichern? [J/n] ")
	if err != nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "j", "ja", "y", "yes":
	default:
		c.println("Abgebrochen")
		return
	}

	if err := c.ctl.SaveCredentials(ctx, next); err != nil {
		c.println(c.renderer.Error(application.UserMessage(err)))
		return
	}
	c.println("Gespeichert")
}

func (c *Console) askKey(label, current string) (string, error) {
	hint := "nicht gesetzt"
	if current != "" {
		hint = "gesetzt, Enter behält"
	}

	value, err := c.in.PasswordPrompt(fmt.Sprintf("%s (%s): ", label, hint))
	if err != nil {
		return "", err
	}
	if value = strings.TrimSpace(value); value == "" {
		return current, nil
	}
	return value, nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

// PermissionPrompt asks once on the terminal before the microphone is opened.
type PermissionPrompt struct {
	in Input
}

func NewPermissionPrompt(in Input) *PermissionPrompt {
	return &PermissionPrompt{in: in}
}

func (p *PermissionPrompt) Request(_ context.Context) (bool, error) {
	answer, err := p.in.Prompt("Allow microphone access? [y/N] ")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "j", "ja":
		return true, nil
	default:
		return false, nil
	}
}

// NewTerminal opens the interactive line editor. Close it before exiting.
func NewTerminal() *liner.State {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}
