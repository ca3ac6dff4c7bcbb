// File: internal/jobs/listing_expiry.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"tradepost_backend/internal/config"
	"tradepost_backend/internal/listing"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ListingExpiryJob periodically flips overdue listings to expired.
type ListingExpiryJob struct {
	listingService listing.Service
	logger         *zap.Logger
	cfg            *config.Config
	cronScheduler  *cron.Cron
}

// NewListingExpiryJob creates a new ListingExpiryJob.
func NewListingExpiryJob(
	listingService listing.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *ListingExpiryJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &ListingExpiryJob{
		listingService: listingService,
		logger:         logger.Named("ListingExpiryJob"),
		cfg:            cfg,
		cronScheduler:  scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *ListingExpiryJob) SetupAndStart() error {
	jobSpec := j.cfg.ListingExpiryJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Listing expiry job schedule not defined (LISTING_EXPIRY_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule listing expiry job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Listing expiry job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *ListingExpiryJob) runJob() {
	j.logger.Info("Starting listing expiry job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expiredCount, err := j.listingService.ExpireListings(ctx)
	if err != nil {
		j.logger.Error("Listing expiry job run failed", zap.Error(err))
	} else {
		j.logger.Info("Listing expiry job run completed", zap.Int("listings_expired", expiredCount))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *ListingExpiryJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping listing expiry job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Listing expiry job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Listing expiry job scheduler stop timed out.")
		}
	}
}

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
