package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/stackfinder/stackfinder/internal/tasks"
)

// StartSitemapScheduler enqueues a sitemap rebuild on the given cron
// schedule. It checks every minute whether a run is due, so a restarted
// worker picks the schedule back up without persisted state.
func StartSitemapScheduler(client *asynq.Client, cronExpr string, logger zerolog.Logger) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		logger.Error().Err(err).Str("schedule", cronExpr).Msg("Invalid sitemap schedule - scheduler disabled")
		return
	}

	next := schedule.Next(time.Now())
	logger.Info().Str("schedule", cronExpr).Time("next_run", next).Msg("Sitemap scheduler started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if time.Now().Before(next) {
			continue
		}
		next = schedule.Next(time.Now())

		task, err := tasks.NewSitemapRebuildTask("scheduled")
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build sitemap task")
			continue
		}
		if _, err := client.Enqueue(task); err != nil {
			logger.Error().Err(err).Msg("Failed to enqueue scheduled sitemap rebuild")
			continue
		}

		logger.Info().Time("next_run", next).Msg("Scheduled sitemap rebuild enqueued")
	}
}
