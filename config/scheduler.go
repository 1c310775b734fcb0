package config

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OverduePromoter is the job the scheduler runs on every tick.
type OverduePromoter interface {
	PromoteStaleReminders(ctx context.Context) (int, error)
}

func GetOverdueCronSpec() string {
	return GetEnvOrDefault("OVERDUE_CRON", "@every 1h")
}

// StartScheduler registers the overdue promotion job and starts the cron
// runner. The caller stops it on shutdown.
func StartScheduler(spec string, job OverduePromoter, timeout time.Duration, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		started := time.Now()
		promoted, err := job.PromoteStaleReminders(ctx)
		if err != nil {
			log.WithError(err).Error("Overdue promotion failed")
			return
		}
		log.WithFields(logrus.Fields{
			"promoted": promoted,
			"took":     time.Since(started).String(),
		}).Info("Overdue promotion finished")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.WithField("spec", spec).Info("Scheduler started")
	return c, nil
}
