// Package display is the terminal client that polls the message service and
// shows the current billboard message.
package display

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// State is what the display currently shows.
type State struct {
	Phase     Phase
	Message   string
	Error     string
	Location  string
	UpdatedAt time.Time
}

// Machine holds the display state. Every refresh enters loading first, then
// ends in ready or error.
type Machine struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	state State
}

func NewMachine(clock clockwork.Clock) *Machine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Machine{
		clock: clock,
		state: State{Phase: PhaseLoading, UpdatedAt: clock.Now()},
	}
}

// Begin enters loading. The previous message is dropped.
func (m *Machine) Begin() State {
	return m.set(State{Phase: PhaseLoading})
}

func (m *Machine) Succeed(message, location string) State {
	return m.set(State{Phase: PhaseReady, Message: message, Location: location})
}

func (m *Machine) Fail(reason string) State {
	return m.set(State{Phase: PhaseError, Error: reason})
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Machine) set(s State) State {
	s.UpdatedAt = m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return s
}
