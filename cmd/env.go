package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/advisor"
	"github.com/brightloop/ideaforge/internal/ledger"
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/internal/store"
	"github.com/brightloop/ideaforge/pkg/anthropic"
	"github.com/brightloop/ideaforge/pkg/perplexity"
)

// appEnv holds the wired application components for one command run.
type appEnv struct {
	Store   store.Store
	Ledger  *ledger.Ledger
	Advisor *advisor.Advisor
	Client  anthropic.Client

	closers []func() error
}

func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

// initEnv validates config for the mode and wires the store, the usage
// ledger (sharing the store's database handle), the upstream clients and
// the advisor.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}

	var ledgerStore ledger.Store
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		env.Store = st
		env.closers = append(env.closers, st.Close)
		ledgerStore = ledger.NewSQLiteFromDB(st.DB())

	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		env.Store = st
		env.closers = append(env.closers, st.Close)
		ledgerStore = ledger.NewPostgresFromPool(st.Pool())

	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := env.Store.Migrate(ctx); err != nil {
		env.Close()
		return nil, err
	}
	if err := ledgerStore.Migrate(ctx); err != nil {
		env.Close()
		return nil, err
	}

	env.Ledger = ledger.New(ledgerStore, map[model.UsageKind]int{
		model.UsageEnhancement: cfg.Quota.DailyEnhancements,
		model.UsageValidation:  cfg.Quota.DailyValidations,
	})

	env.Client = anthropic.NewClient(cfg.Anthropic.Key)

	var research perplexity.Client
	if cfg.Perplexity.Key != "" {
		research = perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	} else {
		zap.L().Warn("perplexity key not configured, validation runs without web grounding")
	}

	adv, err := advisor.New(env.Client, research, *cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Advisor = adv

	return env, nil
}
