package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// SweepLimit caps each reaper sweep per run. A backlog larger than the cap
// drains incrementally over multiple runs, never in one unbounded pass.
const SweepLimit = 500

// EphemeralReaper removes time-expired records on a fixed cadence: presence
// past expire_at, proximity tokens past expire_at, alerts beyond retention,
// and availability past until (closed, not deleted).
type EphemeralReaper struct {
	cleanupRepo repository.CleanupRepository
}

func NewEphemeralReaper(cleanupRepo repository.CleanupRepository) *EphemeralReaper {
	return &EphemeralReaper{cleanupRepo: cleanupRepo}
}

// Name identifies the job in scheduler logs.
func (r *EphemeralReaper) Name() string { return "ephemeral_reaper" }

// Run performs one sweep. All mutations commit as one batch; a failed run
// mutates nothing and is retried wholesale at the next tick.
func (r *EphemeralReaper) Run(ctx context.Context) error {
	result, err := r.cleanupRepo.SweepExpired(ctx, time.Now(), model.AlertRetention, SweepLimit)
	if err != nil {
		return fmt.Errorf("sweep expired: %w", err)
	}

	log.Printf("[Reaper] Run OK: presence=%d tokens=%d alerts=%d availability=%d",
		result.PresenceDeleted, result.TokensDeleted, result.AlertsDeleted, result.AvailabilityUpdated)
	return nil
}
