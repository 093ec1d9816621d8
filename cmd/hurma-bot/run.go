package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/username/hurma-bot/internal/config"
	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/internal/hurma"
	"github.com/username/hurma-bot/internal/notify"
	"github.com/username/hurma-bot/pkg/dateutil"
)

// runner performs one collection and hands the result to the notifier.
// Every run builds its own client, so no session outlives a run.
type runner struct {
	hurma    config.HurmaConfig
	notifier notify.Notifier
	logger   *zap.Logger
}

func newRunner(cfg *config.Config, notifier notify.Notifier, logger *zap.Logger) *runner {
	return &runner{
		hurma:    cfg.Hurma,
		notifier: notifier,
		logger:   logger,
	}
}

// Run collects the digest for the target date and delivers it.
// Nothing is delivered when collection fails.
func (r *runner) Run(ctx context.Context, target dateutil.Target) error {
	runLogger := r.logger.With(zap.String("run_id", uuid.NewString()))
	started := time.Now()

	collector := digest.NewCollector(
		hurma.NewClient(r.hurma.Host, r.hurma.Timeout, runLogger),
		digest.Credentials{Email: r.hurma.Email, Password: r.hurma.Password},
		runLogger,
	)

	result, err := collector.Collect(ctx, target)
	if err != nil {
		runLogger.Error("Run failed", zap.Error(err))
		return err
	}

	if err := r.notifier.Notify(ctx, result, target); err != nil {
		runLogger.Error("Delivery failed", zap.Error(err))
		return err
	}

	runLogger.Info("Run completed", zap.Duration("took", time.Since(started)))
	return nil
}
