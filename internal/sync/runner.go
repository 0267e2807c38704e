package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rdelgado/meraki-snipeit-sync/internal/config"
	"github.com/rdelgado/meraki-snipeit-sync/internal/metrics"
	"github.com/rdelgado/meraki-snipeit-sync/internal/models"
	"github.com/rdelgado/meraki-snipeit-sync/internal/snipeit"
)

// DeviceSource yields the complete, ordered device inventory of the source
// platform. A failure here is fatal to the run.
type DeviceSource interface {
	ListOrganizationDevices(ctx context.Context) ([]models.Device, error)
}

// DeviceResult is the outcome of processing one device.
type DeviceResult struct {
	Action snipeit.ReconcileAction
	Err    error
}

// Runner drives one sync run: fetch devices, warm the entity cache, then map
// and reconcile each device in source order with a pacing delay in between.
// A device failure is counted and logged, never fatal to the batch.
type Runner struct {
	source DeviceSource
	snipe  *snipeit.Client
	runs   *models.RunStore
	cfg    config.SyncConfig
	log    zerolog.Logger
	stats  *models.SyncStats // stats of the run in flight
}

// NewRunner wires a runner and registers its call observer on the Snipe-IT
// client so every destination call lands in the run statistics and metrics.
func NewRunner(source DeviceSource, snipe *snipeit.Client, runs *models.RunStore, cfg config.SyncConfig, log zerolog.Logger) *Runner {
	r := &Runner{
		source: source,
		snipe:  snipe,
		runs:   runs,
		cfg:    cfg,
		log:    log.With().Str("component", "sync").Logger(),
	}
	snipe.OnCall(r.observeCall)
	return r
}

func (r *Runner) observeCall(op string) {
	if r.stats != nil {
		r.stats.RecordCall(op)
	}
	metrics.SnipeITCalls.WithLabelValues(op).Inc()
}

// Run executes one full sync. The returned error is non-nil only for fatal
// pre-batch failures (the device fetch); per-device failures are reported
// through the statistics.
func (r *Runner) Run(ctx context.Context, trigger string) (*models.SyncStats, error) {
	run := r.runs.Create(trigger)
	stats := models.NewSyncStats()
	r.stats = stats
	defer func() { r.stats = nil }()

	logf := func(format string, args ...interface{}) {
		line := fmt.Sprintf(format, args...)
		run.AppendLog(line)
		r.log.Info().Str("run", run.ID).Msg(line)
	}

	logf("Fetching devices from Meraki Dashboard API...")
	devices, err := r.source.ListOrganizationDevices(ctx)
	if err != nil {
		run.Fail(err.Error())
		metrics.Runs.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("fetching devices: %w", err)
	}
	if len(devices) == 0 {
		logf("No devices found in Meraki organization.")
	} else {
		logf("Found %d devices in Meraki. Starting sync to Snipe-IT...", len(devices))
	}

	cache := snipeit.NewEntityCache()
	if err := r.snipe.PrewarmCache(ctx, cache, r.cfg.PageLimit); err != nil {
		// Non-fatal: the resolver falls back to per-entity lookups.
		logf("WARNING: cache prewarm failed: %v", err)
	}

	for i, d := range devices {
		if i > 0 {
			// Pacing to stay under the API rate budgets.
			select {
			case <-time.After(r.cfg.DeviceDelay.Std()):
			case <-ctx.Done():
				run.Fail(ctx.Err().Error())
				metrics.Runs.WithLabelValues("failed").Inc()
				return stats, ctx.Err()
			}
		}

		name := d.Name
		if name == "" {
			name = d.Serial
		}
		logf("[%d/%d] Processing device: %s", i+1, len(devices), name)

		res := r.processDevice(ctx, cache, d)
		stats.Total++
		if res.Err != nil {
			stats.Failed++
			metrics.DevicesProcessed.WithLabelValues("failed").Inc()
			logf("  FAIL: %s: %v", name, res.Err)
			continue
		}
		stats.Succeeded++
		switch res.Action {
		case snipeit.ActionCreated:
			stats.Created++
		case snipeit.ActionUpdated:
			stats.Updated++
		}
		metrics.DevicesProcessed.WithLabelValues(string(res.Action)).Inc()
		logf("  OK (%s): %s", res.Action, name)
	}

	stats.Finish()
	run.Complete(stats)
	metrics.Runs.WithLabelValues("completed").Inc()
	metrics.RunDuration.Observe(stats.Elapsed.Seconds())

	logf("Device sync completed in %s: %d total, %d succeeded (%d created, %d updated), %d failed",
		stats.Elapsed.Round(time.Millisecond), stats.Total, stats.Succeeded, stats.Created, stats.Updated, stats.Failed)
	for op, n := range stats.Calls {
		logf("  API calls (%s): %d", op, n)
	}
	return stats, nil
}

// processDevice maps and reconciles one device, converting every fault,
// including an unexpected panic, into a DeviceResult so the batch continues.
func (r *Runner) processDevice(ctx context.Context, cache *snipeit.EntityCache, d models.Device) (res DeviceResult) {
	defer func() {
		if p := recover(); p != nil {
			res = DeviceResult{Err: fmt.Errorf("unexpected fault: %v", p)}
		}
	}()

	payload, err := MapDevice(ctx, r.snipe, cache, d)
	if err != nil {
		return DeviceResult{Err: err}
	}

	out, err := r.snipe.UpsertAsset(ctx, payload)
	if err != nil {
		return DeviceResult{Err: err}
	}
	return DeviceResult{Action: out.Action}
}
