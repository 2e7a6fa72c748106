package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Lookingforcommit/sql-ai-bot/internal/ai"
	"github.com/Lookingforcommit/sql-ai-bot/internal/scheduler"
	"github.com/Lookingforcommit/sql-ai-bot/internal/session"
	"github.com/Lookingforcommit/sql-ai-bot/internal/sqlcheck"
	"github.com/Lookingforcommit/sql-ai-bot/internal/store"
)

// API is the slice of the Telegram client the router uses. *tgbotapi.BotAPI
// satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Validator classifies a submitted query. *sqlcheck.Validator satisfies it.
type Validator interface {
	Validate(ctx context.Context, query string) sqlcheck.Outcome
}

// Router drives the conversation state machine: every inbound message is
// matched on (current session state, message text) in a single deterministic
// dispatch.
type Router struct {
	api       API
	log       *zap.Logger
	repo      store.Repo
	sessions  *session.Store
	validator Validator
	gateway   *ai.Gateway
	sched     *scheduler.Scheduler
}

// NewRouter wires the router to its collaborators.
func NewRouter(
	api API,
	log *zap.Logger,
	repo store.Repo,
	sessions *session.Store,
	validator Validator,
	gateway *ai.Gateway,
	sched *scheduler.Scheduler,
) *Router {
	return &Router{
		api:       api,
		log:       log,
		repo:      repo,
		sessions:  sessions,
		validator: validator,
		gateway:   gateway,
		sched:     sched,
	}
}

// HandleUpdate routes a single update. Turns for the same user are
// serialized through the session store; different users may interleave.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	r.sessions.Do(userID, func(st session.State) session.State {
		r.logAction(ctx, userID, text)
		return r.dispatch(ctx, userID, st, text)
	})
}

// dispatch picks exactly one transition for (state, text). Unmatched
// combinations fall through to the generic response with state unchanged.
func (r *Router) dispatch(ctx context.Context, userID int64, st session.State, text string) session.State {
	switch st := st.(type) {
	case session.AwaitingSurname:
		// Any text is accepted as a literal field value, commands included.
		r.sendText(userID, askNameText)
		return session.AwaitingName{Surname: text}

	case session.AwaitingName:
		r.sendText(userID, askPatronymicText)
		return session.AwaitingPatronymic{Surname: st.Surname, Name: text}

	case session.AwaitingPatronymic:
		return r.finishRegistration(ctx, userID, st, text)

	case session.InDialogue:
		return r.handleDialogue(ctx, userID, st, text)

	default: // session.Idle
		return r.handleIdle(ctx, userID, text)
	}
}

func (r *Router) handleIdle(ctx context.Context, userID int64, text string) session.State {
	switch {
	case text == "/start":
		r.handleStart(ctx, userID)
	case text == "/register":
		return r.handleRegister(ctx, userID)
	case text == "/check_sql" || strings.HasPrefix(text, "/check_sql "):
		return r.handleCheckSQL(ctx, userID, text)
	case text == "/stats":
		r.handleStats(ctx, userID)
	case text == "/schedule" || strings.HasPrefix(text, "/schedule "):
		r.handleSchedule(ctx, userID, text)
	case text == "/cancel_schedule":
		r.handleCancelSchedule(ctx, userID)
	default:
		r.sendText(userID, unknownText)
	}
	return session.Idle{}
}

// logAction records the message in the audit log. Best-effort: a failure
// never aborts the turn.
func (r *Router) logAction(ctx context.Context, userID int64, text string) {
	if err := r.repo.LogAction(ctx, userID, text); err != nil {
		r.log.Warn("action log failed", zap.Error(err), zap.Int64("userID", userID))
	}
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.api.Send(msg); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

// SetCommands publishes the bot command menu.
func (r *Router) SetCommands() error {
	_, err := r.api.Request(tgbotapi.NewSetMyCommands(botCommands()...))
	return err
}
