package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"voice-chat/internal/domain"
)

// DefaultSpeechRate is the speaking rate used for replies.
const DefaultSpeechRate = 1.8

type Dependencies struct {
	Recorder     Recorder
	Permission   PermissionGate
	STT          SpeechToText
	Chat         ChatCompleter
	Speaker      Speaker
	Conversation *ConversationLog
	Credentials  *CredentialStore
	Session      *Session
	SpeechRate   float64
}

// TurnResult is what a successful turn produced.
type TurnResult struct {
	Transcript   string
	Reply        string
	Conversation []domain.Turn
}

// Orchestrator runs one conversation turn at a time:
// capture, transcribe, complete, append, speak.
type Orchestrator struct {
	recorder     Recorder
	permission   PermissionGate
	stt          SpeechToText
	chat         ChatCompleter
	speaker      Speaker
	conversation *ConversationLog
	credentials  *CredentialStore
	session      *Session
	speechRate   float64
	logger       *slog.Logger

	permMu  sync.Mutex
	granted bool
}

func NewOrchestrator(deps Dependencies, logger *slog.Logger) *Orchestrator {
	if deps.Permission == nil {
		deps.Permission = AlwaysGranted{}
	}
	if deps.Speaker == nil {
		deps.Speaker = NoopSpeaker{}
	}
	if deps.Session == nil {
		deps.Session = NewSession(false)
	}
	if deps.SpeechRate <= 0 {
		deps.SpeechRate = DefaultSpeechRate
	}
	return &Orchestrator{
		recorder:     deps.Recorder,
		permission:   deps.Permission,
		stt:          deps.STT,
		chat:         deps.Chat,
		speaker:      deps.Speaker,
		conversation: deps.Conversation,
		credentials:  deps.Credentials,
		session:      deps.Session,
		speechRate:   deps.SpeechRate,
		logger:       logger,
	}
}

func (o *Orchestrator) Session() SessionState {
	return o.session.Snapshot()
}

func (o *Orchestrator) Conversation() []domain.Turn {
	return o.conversation.Turns()
}

func (o *Orchestrator) SetSpeechOutput(enabled bool) {
	o.session.SetSpeechOutput(enabled)
	o.logger.Info("speech output changed", "enabled", enabled)
}

func (o *Orchestrator) SaveCredentials(ctx context.Context, creds domain.Credentials) error {
	if err := o.credentials.Save(ctx, creds); err != nil {
		o.logger.Error("saving credentials", "error", err)
		return err
	}
	o.logger.Info("credentials saved")
	return nil
}

func (o *Orchestrator) Credentials(ctx context.Context) (domain.Credentials, error) {
	return o.credentials.Credentials(ctx)
}

func (o *Orchestrator) ClearConversation(ctx context.Context) error {
	if err := o.conversation.Clear(ctx); err != nil {
		o.logger.Error("clearing conversation", "error", err)
		return err
	}
	o.logger.Info("conversation cleared")
	return nil
}

// ToggleCapture starts a recording when idle and submits the turn when recording.
// The result is nil when a recording was started.
func (o *Orchestrator) ToggleCapture(ctx context.Context) (*TurnResult, error) {
	if _, err := o.requireCredentials(ctx); err != nil {
		return nil, o.fail(err)
	}
	if o.session.Snapshot().Capturing {
		return o.SubmitTurn(ctx)
	}
	return nil, o.StartCapture(ctx)
}

func (o *Orchestrator) StartCapture(ctx context.Context) error {
	state := o.session.Snapshot()
	if state.TurnInProgress {
		return domain.ErrTurnInProgress
	}
	if state.Capturing {
		return o.fail(domain.NewError(domain.KindCapture, ReasonStart, domain.ErrAlreadyRecording))
	}

	if err := o.ensurePermission(ctx); err != nil {
		return o.fail(err)
	}

	if err := o.recorder.Start(ctx); err != nil {
		return o.fail(domain.NewError(domain.KindCapture, ReasonStart, err))
	}

	o.session.SetCapturing(true)
	o.session.SetLastError("")
	o.logger.Info("recording started", "recorder", o.recorder.Name())
	return nil
}

// SubmitTurn stops the running capture and takes the recording through the pipeline.
func (o *Orchestrator) SubmitTurn(ctx context.Context) (*TurnResult, error) {
	if !o.session.beginTurn() {
		return nil, domain.ErrTurnInProgress
	}
	defer o.session.endTurn()

	// once submitted, a turn runs to completion or failure
	ctx = context.WithoutCancel(ctx)

	creds, err := o.requireCredentials(ctx)
	if err != nil {
		return nil, o.fail(err)
	}

	o.session.SetCapturing(false)
	rec, err := o.recorder.Stop(ctx)
	if err != nil {
		return nil, o.fail(domain.NewError(domain.KindCapture, ReasonStop, err))
	}
	if rec == nil || len(rec.Data) == 0 {
		return nil, o.fail(domain.NewError(domain.KindCapture, ReasonStop, fmt.Errorf("empty recording")))
	}

	o.logger.Info("recording stopped", "bytes", len(rec.Data), "path", rec.Path, "duration", rec.Duration)

	return o.runTurn(ctx, creds, rec)
}

// SubmitRecording takes audio captured elsewhere through the pipeline.
func (o *Orchestrator) SubmitRecording(ctx context.Context, rec *domain.Recording) (*TurnResult, error) {
	if !o.session.beginTurn() {
		return nil, domain.ErrTurnInProgress
	}
	defer o.session.endTurn()

	// once submitted, a turn runs to completion or failure
	ctx = context.WithoutCancel(ctx)

	creds, err := o.requireCredentials(ctx)
	if err != nil {
		return nil, o.fail(err)
	}
	if rec == nil || len(rec.Data) == 0 {
		return nil, o.fail(domain.NewError(domain.KindCapture, ReasonStop, fmt.Errorf("empty recording")))
	}

	o.logger.Info("received recording", "bytes", len(rec.Data), "path", rec.Path)

	return o.runTurn(ctx, creds, rec)
}

func (o *Orchestrator) runTurn(ctx context.Context, creds domain.Credentials, rec *domain.Recording) (*TurnResult, error) {
	transcript, err := o.stt.Transcribe(ctx, creds.TranscriptionKey, rec.Data)
	if err != nil {
		return nil, o.fail(domain.NewError(domain.KindTranscription, "transcribing", err))
	}
	o.logger.Info("transcribed", "text", transcript)

	prompt := BuildPrompt(o.conversation.Turns(), transcript)

	reply, err := o.chat.Complete(ctx, creds.ChatKey, prompt)
	if err != nil {
		return nil, o.fail(domain.NewError(domain.KindCompletion, "completing", err))
	}
	o.logger.Info("completed", "chars", len(reply))

	turns, err := o.conversation.Append(ctx, domain.UserTurn(transcript), domain.AssistantTurn(reply))
	if err != nil {
		o.logger.Warn("conversation not persisted", "error", err)
	}

	o.session.SetLastError("")

	if o.session.Snapshot().SpeechOutputEnabled {
		o.speak(ctx, reply)
	}

	return &TurnResult{
		Transcript:   transcript,
		Reply:        reply,
		Conversation: turns,
	}, nil
}

func (o *Orchestrator) speak(ctx context.Context, reply string) {
	text := StripEmoji(reply)
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := o.speaker.Speak(ctx, text, o.speechRate); err != nil {
		o.logger.Warn("speaking reply", "error", err)
	}
}

func (o *Orchestrator) requireCredentials(ctx context.Context) (domain.Credentials, error) {
	creds, err := o.credentials.Credentials(ctx)
	if err != nil {
		return domain.Credentials{}, domain.NewError(domain.KindConfiguration, "reading credentials", err)
	}
	if !creds.Complete() {
		return domain.Credentials{}, domain.NewError(domain.KindConfiguration, "missing credentials", nil)
	}
	return creds, nil
}

func (o *Orchestrator) ensurePermission(ctx context.Context) error {
	o.permMu.Lock()
	defer o.permMu.Unlock()

	if o.granted {
		return nil
	}

	granted, err := o.permission.Request(ctx)
	if err != nil {
		return domain.NewError(domain.KindPermission, "requesting microphone access", err)
	}
	if !granted {
		return domain.NewError(domain.KindPermission, "microphone access denied", nil)
	}

	o.granted = true
	return nil
}

func (o *Orchestrator) fail(err error) error {
	o.session.SetLastError(UserMessage(err))
	o.logger.Error("turn failed", "error", err)
	return err
}
