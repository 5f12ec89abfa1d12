package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhisek/quizmate/internal/blocker"
	"github.com/abhisek/quizmate/internal/cache"
	"github.com/abhisek/quizmate/internal/detect"
	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/quiz"
	"github.com/abhisek/quizmate/internal/solver"
	"github.com/abhisek/quizmate/internal/store"
	"github.com/abhisek/quizmate/internal/ui/theme"
)

// env holds what the solving commands share. The SQLite store always
// backs the LLM event log; the key-value tiers live in SQLite or Redis.
type env struct {
	store   *store.Store
	redis   *store.RedisKV
	kv      store.KV
	cache   *cache.Cache
	blocker *blocker.Blocker
	solver  *solver.Solver
}

// openStore opens the configured SQLite database.
func openStore() (*store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openEnv wires storage, and the solver when withSolver is set.
func openEnv(ctx context.Context, withSolver bool) (*env, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	e := &env{store: st, kv: st.KV()}

	switch cfg.Store.Backend {
	case "", "sqlite":
	case "redis":
		r, err := store.OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPrefix)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.redis = r
		e.kv = r
	default:
		e.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	e.cache = cache.New(e.kv, log)
	e.blocker = blocker.New(e.kv, log)
	if !withSolver {
		return e, nil
	}

	llmCfg := cfg.LLM
	if err := applyStoredKey(ctx, e.kv, &llmCfg); err != nil {
		log.Warn("cmd: reading stored api key", "error", err)
	}
	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo(), log)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.solver = solver.New(cfg.Solver, detect.New(detect.DefaultConfig(), log), provider, e.cache, e.blocker, log)
	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.store.Close()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// cardRenderer prints every outcome as it arrives.
func cardRenderer(w io.Writer) solver.Renderer {
	n := 0
	return solver.RendererFunc(func(q quiz.Question, o *solver.Outcome) {
		n++
		fmt.Fprintln(w, theme.Outcome(n, q.Text, o))
	})
}

// describeRunError turns the expected run failures into a short line.
func describeRunError(err error) string {
	switch {
	case errors.Is(err, solver.ErrNoQuestions):
		return "No questions found on this page."
	case errors.Is(err, solver.ErrScanActive):
		return "A scan is already running."
	case errors.Is(err, solver.ErrAutoSolveDisabled):
		return "Auto-solve is off."
	case errors.Is(err, llm.ErrMissingKey):
		return "No API key configured. Run `quizmate key set` or export QUIZMATE_GEMINI_API_KEY."
	}
	return err.Error()
}
