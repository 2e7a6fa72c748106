package session

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

func TestDoTransitions(t *testing.T) {
	s := NewStore()

	if _, ok := s.Peek(1).(Idle); !ok {
		t.Fatalf("fresh user must be Idle, got %T", s.Peek(1))
	}

	s.Do(1, func(st State) State {
		if _, ok := st.(Idle); !ok {
			t.Fatalf("want Idle, got %T", st)
		}
		return AwaitingSurname{}
	})
	s.Do(1, func(st State) State {
		if _, ok := st.(AwaitingSurname); !ok {
			t.Fatalf("want AwaitingSurname, got %T", st)
		}
		return AwaitingName{Surname: "Ivanov"}
	})
	s.Do(1, func(st State) State {
		n, ok := st.(AwaitingName)
		if !ok || n.Surname != "Ivanov" {
			t.Fatalf("want AwaitingName{Ivanov}, got %#v", st)
		}
		return AwaitingPatronymic{Surname: n.Surname, Name: "Petr"}
	})

	p, ok := s.Peek(1).(AwaitingPatronymic)
	if !ok || p.Surname != "Ivanov" || p.Name != "Petr" {
		t.Fatalf("want AwaitingPatronymic{Ivanov Petr}, got %#v", s.Peek(1))
	}
}

func TestDoIdleClearsEntry(t *testing.T) {
	s := NewStore()
	s.Do(7, func(State) State {
		return InDialogue{Transcript: []domain.ChatMessage{{Role: domain.RoleSystem, Content: "x"}}}
	})
	s.Do(7, func(State) State { return Idle{} })

	if _, ok := s.Peek(7).(Idle); !ok {
		t.Fatalf("want Idle after clear, got %T", s.Peek(7))
	}
	s.mu.Lock()
	_, stored := s.state[7]
	s.mu.Unlock()
	if stored {
		t.Fatal("Idle state must not be stored")
	}
}

func TestDoSerializesPerUser(t *testing.T) {
	s := NewStore()
	var inside int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(42, func(st State) State {
				if !atomic.CompareAndSwapInt32(&inside, 0, 1) {
					t.Error("two turns for the same user ran concurrently")
				}
				atomic.StoreInt32(&inside, 0)
				return AwaitingSurname{}
			})
		}()
	}
	wg.Wait()
}

func TestDoIndependentUsers(t *testing.T) {
	s := NewStore()
	s.Do(1, func(State) State { return AwaitingSurname{} })
	s.Do(2, func(State) State { return InDialogue{Transcript: []domain.ChatMessage{{Role: domain.RoleSystem, Content: "p"}}} })

	if _, ok := s.Peek(1).(AwaitingSurname); !ok {
		t.Fatalf("user 1 state clobbered: %T", s.Peek(1))
	}
	if _, ok := s.Peek(2).(InDialogue); !ok {
		t.Fatalf("user 2 state clobbered: %T", s.Peek(2))
	}
}
