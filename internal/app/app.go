package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Lookingforcommit/sql-ai-bot/internal/ai"
	"github.com/Lookingforcommit/sql-ai-bot/internal/config"
	"github.com/Lookingforcommit/sql-ai-bot/internal/scheduler"
	"github.com/Lookingforcommit/sql-ai-bot/internal/session"
	"github.com/Lookingforcommit/sql-ai-bot/internal/sqlcheck"
	"github.com/Lookingforcommit/sql-ai-bot/internal/store"
	"github.com/Lookingforcommit/sql-ai-bot/internal/telegram"
)

// App is the composition root. It owns every long-lived service object and
// passes them to the components that need them; no package-level singletons.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting sql-ai-bot", zap.String("http", a.cfg.HTTPAddr))

	// Open SQLite and run migrations. A failure here refuses startup.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	var completer ai.Completer
	if a.cfg.OpenAIAPIKey != "" {
		completer = ai.NewOpenAIClient(a.cfg.OpenAIAPIKey, a.cfg.OpenAIBaseURL, a.cfg.OpenAIModel)
	} else {
		a.log.Warn("OPENAI_API_KEY not set, assistant disabled")
	}
	gateway := ai.NewGateway(completer, a.log, a.cfg.AITimeout)

	sessions := session.NewStore()
	validator := sqlcheck.New(repo)

	// One scheduler per process, rehydrated before any mutation and before
	// the first inbound message is accepted.
	a.sched = scheduler.New(repo, a.log, telegram.NewSender(a.bot))
	if err := a.sched.RehydrateAll(ctx); err != nil {
		a.log.Error("scheduler rehydrate failed", zap.Error(err))
		return err
	}

	a.router = telegram.NewRouter(a.bot, a.log, repo, sessions, validator, gateway, a.sched)
	if err := a.router.SetCommands(); err != nil {
		a.log.Warn("set commands failed", zap.Error(err))
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			a.sched.Stop()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
