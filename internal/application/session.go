package application

import "sync"

// SessionState is a point-in-time copy of the transient session flags.
type SessionState struct {
	Capturing           bool   `json:"capturing"`
	TurnInProgress      bool   `json:"turnInProgress"`
	SpeechOutputEnabled bool   `json:"speechOutputEnabled"`
	LastError           string `json:"lastError,omitempty"`
}

// Session holds the state shared between the orchestrator and whichever front end drives it.
// Nothing in it is persisted.
type Session struct {
	mu    sync.Mutex
	state SessionState
}

func NewSession(speechOutputEnabled bool) *Session {
	return &Session{state: SessionState{SpeechOutputEnabled: speechOutputEnabled}}
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetCapturing(capturing bool) {
	s.mu.Lock()
	s.state.Capturing = capturing
	s.mu.Unlock()
}

func (s *Session) SetSpeechOutput(enabled bool) {
	s.mu.Lock()
	s.state.SpeechOutputEnabled = enabled
	s.mu.Unlock()
}

func (s *Session) SetLastError(msg string) {
	s.mu.Lock()
	s.state.LastError = msg
	s.mu.Unlock()
}

// beginTurn marks a turn as running. It returns false if one already is.
func (s *Session) beginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.TurnInProgress {
		return false
	}
	s.state.TurnInProgress = true
	return true
}

func (s *Session) endTurn() {
	s.mu.Lock()
	s.state.TurnInProgress = false
	s.mu.Unlock()
}
