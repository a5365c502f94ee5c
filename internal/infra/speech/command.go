package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

type Engine string

const (
	EngineAuto   Engine = "auto"
	EngineEspeak Engine = "espeak-ng"
	EngineSay    Engine = "say"
	EngineNone   Engine = "none"
)

// DefaultWordsPerMinute is the engine speed a rate of 1.0 maps to.
const DefaultWordsPerMinute = 175

const queueSize = 8

var (
	ErrNoEngine      = errors.New("no speech engine found")
	ErrQueueFull     = errors.New("speech queue full")
	ErrSpeakerClosed = errors.New("speaker closed")
)

type runner func(ctx context.Context, binary string, args []string, stdin string) error

type utterance struct {
	text string
	rate float64
}

// CommandSpeaker plays text through a local TTS binary. Speak only enqueues;
// utterances are played one after another on a single worker.
type CommandSpeaker struct {
	engine Engine
	binary string
	voice  string
	logger *slog.Logger
	run    runner

	queue  chan utterance
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewCommandSpeaker resolves engine to a binary on PATH. EngineAuto tries espeak-ng, then say.
func NewCommandSpeaker(engine Engine, voice string, logger *slog.Logger) (*CommandSpeaker, error) {
	resolved, binary, err := resolve(engine)
	if err != nil {
		return nil, err
	}
	return newCommandSpeaker(resolved, binary, voice, logger, runCommand), nil
}

func newCommandSpeaker(engine Engine, binary, voice string, logger *slog.Logger, run runner) *CommandSpeaker {
	ctx, cancel := context.WithCancel(context.Background())
	s := &CommandSpeaker{
		engine: engine,
		binary: binary,
		voice:  voice,
		logger: logger,
		run:    run,
		queue:  make(chan utterance, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func resolve(engine Engine) (Engine, string, error) {
	candidates := []Engine{engine}
	if engine == "" || engine == EngineAuto {
		candidates = []Engine{EngineEspeak, EngineSay}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(string(c)); err == nil {
			return c, path, nil
		}
	}
	return "", "", fmt.Errorf("%w: tried %v", ErrNoEngine, candidates)
}

func (s *CommandSpeaker) Engine() Engine {
	return s.engine
}

func (s *CommandSpeaker) Speak(_ context.Context, text string, rate float64) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSpeakerClosed
	}

	select {
	case s.queue <- utterance{text: text, rate: rate}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the current playback and drops anything still queued.
func (s *CommandSpeaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *CommandSpeaker) loop() {
	defer s.wg.Done()

	for u := range s.queue {
		if s.ctx.Err() != nil {
			continue
		}
		if err := s.run(s.ctx, s.binary, buildArgs(s.engine, s.voice, u.rate), u.text); err != nil && s.ctx.Err() == nil {
			s.logger.Warn("speech playback failed", "engine", s.engine, "error", err)
		}
	}
}

// WordsPerMinute scales the default engine speed by rate.
func WordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return int(math.Round(DefaultWordsPerMinute * rate))
}

func buildArgs(engine Engine, voice string, rate float64) []string {
	wpm := strconv.Itoa(WordsPerMinute(rate))

	var args []string
	switch engine {
	case EngineSay:
		if voice != "" {
			args = append(args, "-v", voice)
		}
		args = append(args, "-r", wpm)
	default:
		if voice != "" {
			args = append(args, "-v", voice)
		}
		args = append(args, "-s", wpm, "--stdin")
	}
	return args
}

func runCommand(ctx context.Context, binary string, args []string, stdin string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(stdin)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(string(out)))
	}
	return nil
}
