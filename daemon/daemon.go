// Package daemon runs the periodic loops that keep the pipeline moving:
// queue ticks, callback and follow-up scans, and daily maintenance.
package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/queue"
)

// QueueTicker dispatches at most one queued call per tick. Satisfied by
// queue.Scheduler.
type QueueTicker interface {
	Tick(ctx context.Context) (*queue.TickResult, error)
}

// Scanner processes due work in one pass. Satisfied by the followup
// scanners.
type Scanner interface {
	Scan(ctx context.Context) (int, error)
}

// Maintainer runs the daily cleanup work.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// Config sets the loop intervals.
type Config struct {
	TickInterval        time.Duration // queue dispatch (default: 1 minute)
	ScanInterval        time.Duration // callback + follow-up scans (default: 1 minute)
	MaintenanceInterval time.Duration // retention cleanup + stale sweep (default: 24 hours)
}

// DefaultConfig returns the standard loop intervals.
func DefaultConfig() Config {
	return Config{
		TickInterval:        time.Minute,
		ScanInterval:        time.Minute,
		MaintenanceInterval: 24 * time.Hour,
	}
}

// Daemon owns the background loops. Start launches them, Stop waits for a
// clean exit.
type Daemon struct {
	ticker     QueueTicker
	scanners   []Scanner
	maintainer Maintainer
	config     Config
	logger     *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon rooted in the given parent context.
func New(ctx context.Context, ticker QueueTicker, scanners []Scanner,
	maintainer Maintainer, config Config, logger *zap.SugaredLogger) *Daemon {
	daemonCtx, cancel := context.WithCancel(ctx)
	return &Daemon{
		ticker:     ticker,
		scanners:   scanners,
		maintainer: maintainer,
		config:     config,
		logger:     logger,
		ctx:        daemonCtx,
		cancel:     cancel,
	}
}

// Start launches the loops.
func (d *Daemon) Start() {
	d.wg.Add(3)
	go d.runQueueLoop()
	go d.runScanLoop()
	go d.runMaintenanceLoop()
	d.logger.Infow("Daemon started",
		"tick_interval", d.config.TickInterval,
		"scan_interval", d.config.ScanInterval,
		"maintenance_interval", d.config.MaintenanceInterval,
	)
}

// Stop cancels the loops and waits for them to finish.
func (d *Daemon) Stop() {
	d.cancel()
	d.wg.Wait()
	d.logger.Infow("Daemon stopped")
}

func (d *Daemon) runQueueLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.ticker.Tick(d.ctx); err != nil {
				d.logger.Warnw("Queue tick error", "error", err)
			}
		}
	}
}

func (d *Daemon) runScanLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			for _, scanner := range d.scanners {
				select {
				case <-d.ctx.Done():
					return
				default:
				}
				if _, err := scanner.Scan(d.ctx); err != nil {
					d.logger.Warnw("Scan error", "error", err)
				}
			}
		}
	}
}

func (d *Daemon) runMaintenanceLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.maintainer.Maintain(d.ctx); err != nil {
				d.logger.Warnw("Maintenance error", "error", err)
			}
		}
	}
}
