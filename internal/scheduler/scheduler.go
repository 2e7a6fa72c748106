// Package scheduler owns one recurring statistics job per opted-in user and
// keeps the job set consistent with the persisted scheduler table.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
	"github.com/Lookingforcommit/sql-ai-bot/internal/store"
)

// Sender is a minimal interface the scheduler needs to send a text message.
// telegram.Sender implements this.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// ErrNoSchedule is returned by Cancel when the user has no active job.
var ErrNoSchedule = errors.New("no active schedule")

// NoStatsText is sent when a job fires for a user without a stats row.
const NoStatsText = "No statistics recorded for you yet."

// StatsText formats the periodic statistics summary.
func StatsText(s *domain.Stats) string {
	return fmt.Sprintf("Bot usage statistics:\nCorrect queries: %d\nIncorrect queries: %d",
		s.Correct, s.Incorrect)
}

type job struct {
	cancel  context.CancelFunc
	minutes int
}

// Scheduler maintains the per-user job map. Exactly one Scheduler exists per
// process; the app constructs it once and hands it to the router.
type Scheduler struct {
	repo   store.Repo
	log    *zap.Logger
	sender Sender

	mu   sync.Mutex
	jobs map[int64]job

	// unit is the duration one interval minute maps to. Tests shrink it.
	unit time.Duration
}

// New creates a Scheduler. No jobs run until RehydrateAll or Schedule.
func New(repo store.Repo, log *zap.Logger, sender Sender) *Scheduler {
	return &Scheduler{
		repo:   repo,
		log:    log,
		sender: sender,
		jobs:   make(map[int64]job),
		unit:   time.Minute,
	}
}

// RehydrateAll reads every persisted schedule entry and starts the matching
// job. Called once at startup, before any scheduling mutation is accepted.
func (s *Scheduler) RehydrateAll(ctx context.Context) error {
	entries, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.startLocked(e.TelegramID, e.IntervalMinutes)
	}
	s.log.Info("scheduler rehydrated", zap.Int("jobs", len(entries)))
	return nil
}

// Schedule upserts the persisted entry and creates or replaces the user's
// job with the new cadence. Replacement leaves no duplicate job.
func (s *Scheduler) Schedule(ctx context.Context, userID int64, intervalMinutes int) error {
	if intervalMinutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", intervalMinutes)
	}
	if err := s.repo.UpsertSchedule(ctx, userID, intervalMinutes); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(userID, intervalMinutes)
	return nil
}

// Cancel stops the user's job and deletes the persisted entry. The entry is
// removed only after the job is gone, so the table never points at a dead
// job. Returns ErrNoSchedule when there is nothing to cancel.
func (s *Scheduler) Cancel(ctx context.Context, userID int64) error {
	s.mu.Lock()
	j, ok := s.jobs[userID]
	if ok {
		j.cancel()
		delete(s.jobs, userID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNoSchedule
	}
	if err := s.repo.DeleteSchedule(ctx, userID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// Stop cancels every running job. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		j.cancel()
		delete(s.jobs, id)
	}
}

// startLocked replaces any existing job for the user. Caller holds s.mu.
func (s *Scheduler) startLocked(userID int64, intervalMinutes int) {
	if j, ok := s.jobs[userID]; ok {
		j.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.jobs[userID] = job{cancel: cancel, minutes: intervalMinutes}
	go s.run(ctx, userID, time.Duration(intervalMinutes)*s.unit)
}

func (s *Scheduler) run(ctx context.Context, userID int64, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, userID)
		}
	}
}

// fire reads the user's stats and sends the summary. It mutates nothing, so
// racing with Cancel is harmless beyond one extra delivery.
func (s *Scheduler) fire(ctx context.Context, userID int64) {
	stats, err := s.repo.GetStats(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := s.sender.SendMessage(userID, NoStatsText); err != nil {
			s.log.Error("send failed", zap.Error(err), zap.Int64("userID", userID))
		}
	case err != nil:
		s.log.Error("GetStats failed", zap.Error(err), zap.Int64("userID", userID))
	default:
		if err := s.sender.SendMessage(userID, StatsText(stats)); err != nil {
			s.log.Error("send failed", zap.Error(err), zap.Int64("userID", userID))
		}
	}
}

// snapshot returns the current job cadences keyed by user. Test helper.
func (s *Scheduler) snapshot() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int, len(s.jobs))
	for id, j := range s.jobs {
		out[id] = j.minutes
	}
	return out
}
