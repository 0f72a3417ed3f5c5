// Package main provides the LINE bot server entry point.
package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miulabs/miu-linebot-go/internal/config"
	"github.com/miulabs/miu-linebot-go/internal/dedup"
	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/maintenance"
	"github.com/miulabs/miu-linebot-go/internal/snapshot"
	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// stalePendingImageAge is when a buffered photo is considered abandoned.
// Generation accepts buffers up to an hour old, so cleanup waits longer.
const stalePendingImageAge = 2 * time.Hour

// jst is the bot's home timezone for calendar-based scheduling.
var jst = time.FixedZone("JST", 9*60*60)

type jobDeps struct {
	cfg         *config.Config
	db          *storage.DB
	images      *storage.PendingImageStore
	memoryDedup *dedup.MemoryStore          // nil when Redis handles dedup
	snapshots   *snapshot.Manager           // nil when R2 is not configured
	schedule    *maintenance.ScheduleStore  // nil when R2 is not configured
	log         *logger.Logger
}

type jobRunner struct {
	g errgroup.Group
}

// startJobs launches the background maintenance goroutines.
func startJobs(ctx context.Context, deps jobDeps) *jobRunner {
	r := &jobRunner{}
	log := deps.log.WithModule("jobs")

	r.spawn(log, "dedup_janitor", func() {
		if deps.memoryDedup == nil {
			return
		}
		runTicker(ctx, config.DedupJanitorInterval, func() {
			removed := deps.memoryDedup.Sweep()
			if removed > 0 {
				log.WithField("removed", removed).Debug("Dedup janitor swept expired entries")
			}
		})
	})

	r.spawn(log, "pending_image_cleanup", func() {
		runTicker(ctx, config.PendingImageCleanupInterval, func() {
			cleanupPendingImages(ctx, deps.db, deps.images, log)
		})
	})

	r.spawn(log, "nightly_backup", func() {
		if deps.snapshots == nil {
			return
		}
		runNightlyBackup(ctx, deps, log)
	})

	return r
}

// spawn runs fn in a goroutine with panic containment.
func (r *jobRunner) spawn(log *logger.Logger, name string, fn func()) {
	r.g.Go(func() error {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithField("job", name).WithField("panic", rec).Error("Panic in background job")
			}
		}()
		fn()
		return nil
	})
}

// wait blocks until all jobs stop or the timeout elapses.
func (r *jobRunner) wait(timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		_ = r.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("All background jobs stopped")
	case <-time.After(timeout):
		log.Warn("Timeout waiting for background jobs to stop")
	}
}

// runTicker calls fn on every tick until the context is canceled.
func runTicker(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// cleanupPendingImages drops abandoned photo buffers: first the database
// references, then any files left on disk.
func cleanupPendingImages(ctx context.Context, db *storage.DB, images *storage.PendingImageStore, log *logger.Logger) {
	ids, err := db.StalePendingImageIDs(ctx, stalePendingImageAge)
	if err != nil {
		log.WithError(err).Error("Failed to list stale pending images")
		return
	}
	for _, id := range ids {
		if err := images.Delete(id); err != nil {
			log.WithError(err).WithField("image_id", id).Warn("Failed to delete stale pending image")
		}
	}

	cleared, err := db.ClearStalePendingImages(ctx, stalePendingImageAge)
	if err != nil {
		log.WithError(err).Error("Failed to clear stale pending image references")
		return
	}

	// Orphaned files with no database reference age out too.
	removed, err := images.DeleteOlderThan(stalePendingImageAge)
	if err != nil {
		log.WithError(err).Warn("Failed to sweep pending image directory")
	}

	if cleared > 0 || removed > 0 {
		log.WithField("cleared_refs", cleared).
			WithField("removed_files", removed).
			Info("Pending image cleanup complete")
	}
}

// runNightlyBackup uploads a database snapshot once per JST calendar day.
// With a schedule store the last-run day is shared across replicas;
// without one each instance keeps its own in-memory marker.
func runNightlyBackup(ctx context.Context, deps jobDeps, log *logger.Logger) {
	const checkInterval = time.Hour
	var localLastRun int64

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()

		lastRun := localLastRun
		if deps.schedule != nil {
			state, _, err := deps.schedule.Ensure(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to load backup schedule")
				continue
			}
			lastRun = state.LastBackup
		}
		if !maintenance.Due(lastRun, now, jst) {
			continue
		}

		backupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		ran, err := deps.snapshots.BackupAsLeader(backupCtx, deps.db)
		cancel()
		if err != nil {
			log.WithError(err).Error("Nightly backup failed")
			continue
		}
		if !ran {
			continue
		}

		localLastRun = now.Unix()
		if deps.schedule != nil {
			if err := deps.schedule.Update(ctx, func(s *maintenance.State) {
				s.LastBackup = now.Unix()
			}); err != nil {
				log.WithError(err).Warn("Failed to record backup run")
			}
		}
		log.Info("Nightly backup complete")
	}
}
