package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
)

const (
	pruneSchedule = "@daily"
	pruneTimeout  = time.Minute
)

// pruner deletes expired state history once a day.
type pruner struct {
	cron *cron.Cron
}

// startPruner schedules history pruning. With retention disabled it
// returns a pruner whose Stop does nothing.
func startPruner(cfg *config.Config, db *database.DB, log *logging.Logger) (*pruner, error) {
	retention := cfg.GetHistoryRetention()
	if retention <= 0 {
		log.Info("state history pruning disabled")
		return &pruner{}, nil
	}

	repo := device.NewSQLiteStateHistoryRepository(db.DB)
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{log})))
	_, err := c.AddFunc(pruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()
		n, err := repo.PruneHistory(ctx, retention)
		if err != nil {
			log.Warn("state history prune failed", "error", err)
			return
		}
		log.Info("state history pruned", "rows", n)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info("state history pruning scheduled", "retention", retention.String())
	return &pruner{cron: c}, nil
}

// Stop waits for a running prune to finish.
func (p *pruner) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
