package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

type scriptedInput struct {
	lines   []string
	prompts []string
}

func (s *scriptedInput) next(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Prompt(prompt string) (string, error)         { return s.next(prompt) }
func (s *scriptedInput) PasswordPrompt(prompt string) (string, error) { return s.next(prompt) }

type fakeController struct {
	state   application.SessionState
	turns   []domain.Turn
	creds   domain.Credentials
	saved   []domain.Credentials
	toggles int
	cleared bool
}

func (f *fakeController) ToggleCapture(context.Context) (*application.TurnResult, error) {
	f.toggles++
	if !f.creds.Complete() {
		return nil, domain.NewError(domain.KindConfiguration, "missing credentials", nil)
	}
	if !f.state.Capturing {
		f.state.Capturing = true
		return nil, nil
	}
	f.state.Capturing = false
	f.turns = append(f.turns, domain.UserTurn("Hallo"), domain.AssistantTurn("Hi!"))
	return &application.TurnResult{Transcript: "Hallo", Reply: "Hi!", Conversation: f.turns}, nil
}

func (f *fakeController) SetSpeechOutput(enabled bool)      { f.state.SpeechOutputEnabled = enabled }
func (f *fakeController) Session() application.SessionState { return f.state }
func (f *fakeController) Conversation() []domain.Turn       { return f.turns }

func (f *fakeController) Credentials(context.Context) (domain.Credentials, error) {
	return f.creds, nil
}

func (f *fakeController) SaveCredentials(_ context.Context, creds domain.Credentials) error {
	f.creds = creds
	f.saved = append(f.saved, creds)
	return nil
}

func (f *fakeController) ClearConversation(context.Context) error {
	f.turns = nil
	f.cleared = true
	return nil
}

func newConsole(in Input, ctl Controller) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(in, out, ctl, NewRenderer(80), logger), out
}

func TestConsole_RecordAndSubmit(t *testing.T) {
	ctl := &fakeController{creds: domain.Credentials{TranscriptionKey: "lf", ChatKey: "or"}}
	in := &scriptedInput{lines: []string{"", "", "q"}}
	c, out := newConsole(in, ctl)

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 2, ctl.toggles)
	assert.Contains(t, out.String(), "Hallo")
	assert.Contains(t, out.String(), "Hi!")
	assert.Len(t, ctl.turns, 2)
}

func TestConsole_MissingCredentialsOpensSettings(t *testing.T) {
	ctl := &fakeController{}
	in := &scriptedInput{lines: []string{"", "lf-key", "or-key", "", "q"}}
	c, out := newConsole(in, ctl)

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), application.MsgMissingCredentials)
	require.Len(t, ctl.saved, 1)
	assert.Equal(t, domain.Credentials{TranscriptionKey: "lf-key", ChatKey: "or-key"}, ctl.saved[0])
}

func TestConsole_SettingsKeepAndCancel(t *testing.T) {
	ctl := &fakeController{creds: domain.Credentials{TranscriptionKey: "old-lf", ChatKey: "old-or"}}
	in := &scriptedInput{lines: []string{
		"s", "", "new-or", "j",
		"s", "x", "y", "n",
		"q",
	}}
	c, _ := newConsole(in, ctl)

	require.NoError(t, c.Run(context.Background()))

	require.Len(t, ctl.saved, 1)
	assert.Equal(t, domain.Credentials{TranscriptionKey: "old-lf", ChatKey: "new-or"}, ctl.saved[0])
}

func TestConsole_ToggleSpeechAndClear(t *testing.T) {
	ctl := &fakeController{turns: []domain.Turn{domain.UserTurn("a")}}
	in := &scriptedInput{lines: []string{"t", "c"}}
	c, _ := newConsole(in, ctl)

	require.NoError(t, c.Run(context.Background()), "EOF ends the session")

	assert.True(t, ctl.state.SpeechOutputEnabled)
	assert.True(t, ctl.cleared)
	assert.Empty(t, ctl.turns)
}

type abortingInput struct{}

func (abortingInput) Prompt(string) (string, error)         { return "", liner.ErrPromptAborted }
func (abortingInput) PasswordPrompt(string) (string, error) { return "", liner.ErrPromptAborted }

func TestConsole_CtrlCQuits(t *testing.T) {
	c, _ := newConsole(abortingInput{}, &fakeController{})
	assert.NoError(t, c.Run(context.Background()))
}

func TestConsole_InputError(t *testing.T) {
	c, _ := newConsole(errInput{}, &fakeController{})
	assert.Error(t, c.Run(context.Background()))
}

type errInput struct{}

func (errInput) Prompt(string) (string, error)         { return "", errors.New("tty gone") }
func (errInput) PasswordPrompt(string) (string, error) { return "", errors.New("tty gone") }

func TestPermissionPrompt(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{answer: "y", want: true},
		{answer: "Ja", want: true},
		{answer: "", want: false},
		{answer: "n", want: false},
	}

	for _, tt := range tests {
		in := &scriptedInput{lines: []string{tt.answer}}
		granted, err := NewPermissionPrompt(in).Request(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, granted, "answer %q", tt.answer)
		assert.Equal(t, []string{"Allow microphone access? [y/N] "}, in.prompts)
	}

	granted, err := NewPermissionPrompt(abortingInput{}).Request(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
}
