package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/propdeskhq/propdesk/pkg/autosync"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron   *cron.Cron
	runner *autosync.Runner
	logger *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(runner *autosync.Runner, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:   cron.New(),
		runner: runner,
		logger: logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	// Every minute: provider auto-sync cycle. The runner's own guards skip
	// the cycle unless 5 minutes have passed since the last completed sync.
	_, err := cm.cron.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()

		if cm.runner.RunCycle(ctx) {
			cm.logger.Println("✅ Provider auto-sync cycle completed")
		}
	})

	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Println("  - Every minute: provider auto-sync (5-minute quiet period)")

	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}
