// Package session keeps per-user conversation state for the lifetime of the
// process. Nothing here is persisted: a restart drops in-flight flows, which
// is accepted behavior.
package session

import (
	"sync"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

// State is the current position of a user in a conversational flow. Each
// variant carries exactly the data accumulated so far, so a state can never
// disagree with its data.
type State interface{ isState() }

// Idle means no flow is active. It is also the state of users the store has
// never seen.
type Idle struct{}

// AwaitingSurname is the first registration step.
type AwaitingSurname struct{}

// AwaitingName holds the surname collected in the previous step.
type AwaitingName struct{ Surname string }

// AwaitingPatronymic holds both fields collected so far.
type AwaitingPatronymic struct{ Surname, Name string }

// InDialogue is the open-ended diagnostic dialogue. The transcript always
// starts with a system entry and is append-only until the user exits.
type InDialogue struct{ Transcript []domain.ChatMessage }

func (Idle) isState()               {}
func (AwaitingSurname) isState()    {}
func (AwaitingName) isState()       {}
func (AwaitingPatronymic) isState() {}
func (InDialogue) isState()         {}

// Store holds conversation state keyed by telegram user ID.
type Store struct {
	mu    sync.Mutex
	state map[int64]State
	locks map[int64]*sync.Mutex
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		state: make(map[int64]State),
		locks: make(map[int64]*sync.Mutex),
	}
}

// Do runs fn with exclusive ownership of the user's session. fn receives the
// current state (Idle for unknown users) and returns the next state; Idle
// clears the stored entry. Calls for the same user are serialized; calls for
// different users may run concurrently.
func (s *Store) Do(userID int64, fn func(State) State) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	next := fn(s.Peek(userID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, idle := next.(Idle); idle {
		delete(s.state, userID)
		return
	}
	s.state[userID] = next
}

// Peek returns the user's current state without taking the per-user lock.
// Intended for reads outside a turn (tests, diagnostics).
func (s *Store) Peek(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.state[userID]; ok {
		return st
	}
	return Idle{}
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
