package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
	"github.com/Lookingforcommit/sql-ai-bot/internal/scheduler"
	"github.com/Lookingforcommit/sql-ai-bot/internal/session"
	"github.com/Lookingforcommit/sql-ai-bot/internal/sqlcheck"
	"github.com/Lookingforcommit/sql-ai-bot/internal/store"
)

// --- /start ---

func (r *Router) handleStart(ctx context.Context, userID int64) {
	_, err := r.repo.FindUser(ctx, userID)
	switch {
	case err == nil:
		r.sendWithKeyboard(userID, startRegisteredText, mainMenuKeyboard())
	case errors.Is(err, store.ErrNotFound):
		r.sendWithKeyboard(userID, startText, mainMenuKeyboard())
	default:
		r.log.Error("FindUser failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
	}
}

// --- Registration flow ---

func (r *Router) handleRegister(ctx context.Context, userID int64) session.State {
	_, err := r.repo.FindUser(ctx, userID)
	switch {
	case err == nil:
		r.sendText(userID, alreadyRegisteredText)
		return session.Idle{}
	case errors.Is(err, store.ErrNotFound):
		r.sendText(userID, askSurnameText)
		return session.AwaitingSurname{}
	default:
		r.log.Error("FindUser failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
		return session.Idle{}
	}
}

// finishRegistration persists the user with zeroed stats. On a store failure
// the session stays in AwaitingPatronymic so the user can resend the field.
func (r *Router) finishRegistration(ctx context.Context, userID int64, st session.AwaitingPatronymic, patronymic string) session.State {
	u := &domain.User{
		TelegramID: userID,
		Surname:    st.Surname,
		Name:       st.Name,
		Patronymic: patronymic,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.repo.InsertUser(ctx, u); err != nil {
		r.log.Error("InsertUser failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
		return st
	}
	r.sendText(userID, fmt.Sprintf(registeredFmt, u.Name))
	return session.Idle{}
}

// --- /check_sql ---

func (r *Router) handleCheckSQL(ctx context.Context, userID int64, text string) session.State {
	query := strings.TrimSpace(strings.TrimPrefix(text, "/check_sql"))
	if query == "" {
		r.sendText(userID, checkSQLUsageText)
		return session.Idle{}
	}
	if !r.requireRegistered(ctx, userID) {
		return session.Idle{}
	}

	switch o := r.validator.Validate(ctx, query).(type) {
	case sqlcheck.RecoverableError:
		// Counter first: a store failure aborts the turn before any
		// session transition.
		if err := r.repo.IncrementIncorrect(ctx, userID); err != nil {
			r.log.Error("IncrementIncorrect failed", zap.Error(err), zap.Int64("userID", userID))
			r.sendText(userID, transientErrorText)
			return session.Idle{}
		}
		r.sendText(userID, fmt.Sprintf(queryErrorFmt, o.Message))
		transcript := r.gateway.ExplainError(ctx, query, o.Message)
		r.sendText(userID, fmt.Sprintf(analysisFmt, transcript[len(transcript)-1].Content))
		return session.InDialogue{Transcript: transcript}

	case sqlcheck.UnrelatedError:
		if err := r.repo.IncrementCorrect(ctx, userID); err != nil {
			r.log.Error("IncrementCorrect failed", zap.Error(err), zap.Int64("userID", userID))
			r.sendText(userID, transientErrorText)
			return session.Idle{}
		}
		r.sendText(userID, fmt.Sprintf(queryUncheckedFmt, o.Message))
		return session.Idle{}

	default: // sqlcheck.Accepted
		if err := r.repo.IncrementCorrect(ctx, userID); err != nil {
			r.log.Error("IncrementCorrect failed", zap.Error(err), zap.Int64("userID", userID))
			r.sendText(userID, transientErrorText)
			return session.Idle{}
		}
		r.sendText(userID, queryOKText)
		return session.Idle{}
	}
}

// --- Diagnostic dialogue ---

func (r *Router) handleDialogue(ctx context.Context, userID int64, st session.InDialogue, text string) session.State {
	if text == "/quit" {
		r.sendText(userID, dialogueExitText)
		return session.Idle{}
	}
	if strings.HasPrefix(text, "/") {
		// Commands other than the exit command are not dialogue input.
		r.sendText(userID, dialogueCommandText)
		return st
	}

	st.Transcript = append(st.Transcript, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	reply := r.gateway.ContinueDialogue(ctx, st.Transcript)
	st.Transcript = append(st.Transcript, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
	r.sendText(userID, reply)
	return st
}

// --- /stats ---

func (r *Router) handleStats(ctx context.Context, userID int64) {
	if !r.requireRegistered(ctx, userID) {
		return
	}
	stats, err := r.repo.GetStats(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.sendText(userID, scheduler.NoStatsText)
	case err != nil:
		r.log.Error("GetStats failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
	default:
		r.sendText(userID, scheduler.StatsText(stats))
	}
}

// --- /schedule, /cancel_schedule ---

func (r *Router) handleSchedule(ctx context.Context, userID int64, text string) {
	arg := strings.TrimSpace(strings.TrimPrefix(text, "/schedule"))
	minutes, err := strconv.Atoi(arg)
	if err != nil || minutes <= 0 {
		r.sendText(userID, scheduleUsageText)
		return
	}
	if !r.requireRegistered(ctx, userID) {
		return
	}
	if err := r.sched.Schedule(ctx, userID, minutes); err != nil {
		r.log.Error("Schedule failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
		return
	}
	r.sendText(userID, fmt.Sprintf(scheduledFmt, minutes))
}

func (r *Router) handleCancelSchedule(ctx context.Context, userID int64) {
	err := r.sched.Cancel(ctx, userID)
	switch {
	case errors.Is(err, scheduler.ErrNoSchedule):
		r.sendText(userID, noScheduleText)
	case err != nil:
		r.log.Error("Cancel failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
	default:
		r.sendText(userID, scheduleCancelledText)
	}
}

// requireRegistered replies with a registration prompt for unknown users.
// Returns false when the turn must stop here.
func (r *Router) requireRegistered(ctx context.Context, userID int64) bool {
	_, err := r.repo.FindUser(ctx, userID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		r.sendText(userID, notRegisteredText)
		return false
	default:
		r.log.Error("FindUser failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(userID, transientErrorText)
		return false
	}
}
