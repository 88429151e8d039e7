// Package worker schedules the recurring jobs: the daily collection run
// and the periodic cleanup pass.
package worker

import (
	"log"
	"sync"
	"time"

	"prison-pulse/internal/collector"
	"prison-pulse/internal/services"

	"github.com/robfig/cron/v3"
)

// Default schedules, overridable through WorkerService options.
const (
	DefaultCollectSpec = "0 6 * * *" // daily at 06:00
	DefaultCleanupSpec = "0 4 * * 0" // weekly, Sunday at 04:00
)

// WorkerService manages the cron-driven background jobs.
type WorkerService struct {
	collector   *collector.Collector
	cleanup     *services.CleanupService
	collectSpec string
	cleanupSpec string

	cron    *cron.Cron
	mu      sync.RWMutex
	running bool
	lastRun *collector.RunReport
}

// NewWorkerService creates a new worker service with the default schedules.
func NewWorkerService(coll *collector.Collector, cleanup *services.CleanupService) *WorkerService {
	return &WorkerService{
		collector:   coll,
		cleanup:     cleanup,
		collectSpec: DefaultCollectSpec,
		cleanupSpec: DefaultCleanupSpec,
	}
}

// WithSchedules overrides the cron specs. Call before Start.
func (ws *WorkerService) WithSchedules(collectSpec, cleanupSpec string) *WorkerService {
	ws.collectSpec = collectSpec
	ws.cleanupSpec = cleanupSpec
	return ws
}

// Start registers and starts the scheduled jobs.
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil
	}

	log.Println("Starting background workers...")
	ws.cron = cron.New()

	if _, err := ws.cron.AddFunc(ws.collectSpec, ws.runCollection); err != nil {
		return err
	}
	if _, err := ws.cron.AddFunc(ws.cleanupSpec, ws.runCleanup); err != nil {
		return err
	}

	ws.cron.Start()
	ws.running = true
	log.Println("Background workers started successfully")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return
	}

	log.Println("Stopping background workers...")
	<-ws.cron.Stop().Done()
	ws.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// LastRun returns the report of the most recent collection run, or nil.
func (ws *WorkerService) LastRun() *collector.RunReport {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.lastRun
}

func (ws *WorkerService) runCollection() {
	report, err := ws.collector.Run(time.Now().UTC())
	if err != nil {
		log.Printf("Scheduled collection failed: %v", err)
		return
	}

	ws.mu.Lock()
	ws.lastRun = &report
	ws.mu.Unlock()
}

func (ws *WorkerService) runCleanup() {
	if _, err := ws.cleanup.Run(); err != nil {
		log.Printf("Scheduled cleanup failed: %v", err)
	}
}
