//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"voice-chat/internal/domain"
)

const framesPerBuffer = 1024

// Microphone records from the default input device between Start and Stop.
type Microphone struct {
	sampleRate    int
	recordingsDir string
	logger        *slog.Logger

	mu          sync.Mutex
	initialized bool
	stream      *portaudio.Stream
	samples     []int16
	started     time.Time
	done        chan struct{}
	readerDone  chan error
}

func NewMicrophone(sampleRate int, recordingsDir string, logger *slog.Logger) *Microphone {
	return &Microphone{
		sampleRate:    sampleRate,
		recordingsDir: recordingsDir,
		logger:        logger,
	}
}

func (m *Microphone) Name() string {
	return "microphone"
}

func (m *Microphone) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return domain.ErrAlreadyRecording
	}

	if !m.initialized {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initializing portaudio: %w", err)
		}
		m.initialized = true
	}

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, buffer)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.samples = make([]int16, 0, m.sampleRate*10)
	m.started = time.Now()
	m.done = make(chan struct{})
	m.readerDone = make(chan error, 1)

	go m.read(stream, buffer, m.done, m.readerDone)

	m.logger.Info("microphone started", "sampleRate", m.sampleRate)
	return nil
}

func (m *Microphone) read(stream *portaudio.Stream, buffer []int16, done <-chan struct{}, result chan<- error) {
	for {
		select {
		case <-done:
			result <- nil
			return
		default:
		}

		if err := stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				continue
			}
			result <- fmt.Errorf("reading from stream: %w", err)
			return
		}

		m.mu.Lock()
		m.samples = append(m.samples, buffer...)
		m.mu.Unlock()
	}
}

func (m *Microphone) Stop(_ context.Context) (*domain.Recording, error) {
	m.mu.Lock()
	stream := m.stream
	if stream == nil {
		m.mu.Unlock()
		return nil, domain.ErrNotRecording
	}
	m.stream = nil
	close(m.done)
	m.mu.Unlock()

	readErr := <-m.readerDone

	if err := stream.Stop(); err != nil {
		m.logger.Warn("stopping stream", "error", err)
	}
	if err := stream.Close(); err != nil {
		m.logger.Warn("closing stream", "error", err)
	}

	if readErr != nil {
		return nil, readErr
	}

	m.mu.Lock()
	samples := m.samples
	m.samples = nil
	elapsed := time.Since(m.started)
	m.mu.Unlock()

	data := EncodeWAV(samples, m.sampleRate)

	path, err := SaveRecording(m.recordingsDir, data)
	if err != nil {
		return nil, err
	}

	m.logger.Info("microphone stopped", "samples", len(samples), "path", path)

	return &domain.Recording{
		Data:     data,
		Path:     path,
		Duration: elapsed,
	}, nil
}

// Close releases the audio subsystem.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		close(m.done)
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	if m.initialized {
		m.initialized = false
		return portaudio.Terminate()
	}
	return nil
}
