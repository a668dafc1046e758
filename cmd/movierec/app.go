package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/config"
	"github.com/kailas-cloud/movierec/internal/crypto/password"
	"github.com/kailas-cloud/movierec/internal/db/sqlite"
	"github.com/kailas-cloud/movierec/internal/domain/similarity"
	logpkg "github.com/kailas-cloud/movierec/internal/logger"
	"github.com/kailas-cloud/movierec/internal/metrics"
	"github.com/kailas-cloud/movierec/internal/repository/artifact"
	"github.com/kailas-cloud/movierec/internal/repository/enrichcache"
	"github.com/kailas-cloud/movierec/internal/transport/tmdb"
	recommenduc "github.com/kailas-cloud/movierec/internal/usecase/recommend"
	useruc "github.com/kailas-cloud/movierec/internal/usecase/user"
)

// app is the composition root. Every component is constructed once here and injected.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	store *sqlite.Store
	users *useruc.Service

	index     *similarity.Index
	tmdb      *tmdb.Client
	recommend *recommenduc.Service
}

func loadApp(env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger}, nil
}

// openCredentials opens the credential store, ensures the table and bootstraps admin.
func (a *app) openCredentials(ctx context.Context) error {
	cc := a.cfg.Credentials

	if dir := filepath.Dir(cc.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create credentials dir: %w", err)
		}
	}

	store, err := sqlite.NewStore(sqlite.Config{
		Path:        cc.Path,
		BusyTimeout: time.Duration(cc.BusyTimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	a.store = store

	if err := store.WaitForReady(ctx, time.Duration(cc.BusyTimeoutSec)*time.Second); err != nil {
		return fmt.Errorf("credential store not ready: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	digester, err := password.New(cc.HashAlgorithm)
	if err != nil {
		return fmt.Errorf("password digester: %w", err)
	}
	if cc.HashAlgorithm == password.AlgorithmSHA256 {
		a.logger.Warn("Legacy unsalted SHA-256 password digests in use; switch credentials.hash_algorithm to argon2id")
	}
	a.users = useruc.New(store, digester)

	created, err := a.users.EnsureAdmin(ctx, cc.AdminEmail, cc.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		a.logger.Info("Admin account created")
	}

	a.logger.Info("Credential store ready",
		zap.String("path", cc.Path),
		zap.String("hash_algorithm", cc.HashAlgorithm),
	)
	return nil
}

// openRecommender loads artifacts and assembles the enrichment chain: TMDb -> LRU cache.
func (a *app) openRecommender(ctx context.Context) error {
	metrics.RegisterEnrichmentMetrics()

	idx, err := artifact.NewLoader(a.logger).Load(ctx, a.cfg.Catalog.Path, a.cfg.Catalog.Partitions)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	a.index = idx

	ec := a.cfg.Enrichment
	if ec.APIKey == "" {
		a.logger.Warn("enrichment.api_key is empty; every lookup will fail and filtered recommendations will be empty")
	}
	a.tmdb = tmdb.NewClient(&tmdb.Config{
		APIKey:          ec.APIKey,
		BaseURL:         ec.BaseURL,
		ImageBaseURL:    ec.ImageBaseURL,
		Timeout:         time.Duration(ec.TimeoutSec) * time.Second,
		RateLimit:       ec.RateLimit,
		Burst:           ec.Burst,
		BreakerFailures: ec.BreakerFailures,
		BreakerCooldown: time.Duration(ec.BreakerCooldownSec) * time.Second,
		Logger:          a.logger,
	})

	cache, err := enrichcache.New(a.tmdb, ec.CacheSize, metrics.EnrichmentCacheTotal, a.logger,
		enrichcache.WithErrorKind(tmdb.Kind),
		enrichcache.WithCallTimeout(time.Duration(ec.TimeoutSec)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create enrichment cache: %w", err)
	}
	metrics.RegisterEnrichmentCacheEntries(cache.Len)

	rc := a.cfg.Recommend
	a.recommend = recommenduc.New(idx, cache, recommenduc.Options{
		MaxResults:      rc.MaxResults,
		CandidateWindow: rc.CandidateWindow,
		MaxWindow:       rc.MaxWindow,
		Prefetch:        rc.Prefetch,
	})
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("Failed to close credential store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
