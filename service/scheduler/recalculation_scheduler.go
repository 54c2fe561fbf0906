/*
 * @module service/scheduler/recalculation_scheduler
 * @description Cron-driven QS Score recalculation over every registered company
 * @architecture scheduler built on robfig/cron
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow cron fires -> optional distributed lock -> recalculate each company sequentially
 * @rules one company failing never stops the sweep over the remaining companies
 * @dependencies github.com/robfig/cron/v3, gorm.io/gorm
 * @refs service/qsscore/recalc.go, service/distributed_lock/redis_lock.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"qs-service/service/distributed_lock"
	"qs-service/service/models"
	"qs-service/service/qsscore"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// default: every day at 03:00 (cron with seconds field)
const defaultRecalcCron = "0 0 3 * * *"

// lock TTL sized for the slowest expected sweep
const sweepLockTTL = 30 * time.Minute

// RecalculationScheduler periodic QS Score recalculation service
type RecalculationScheduler struct {
	db       *gorm.DB
	scores   *qsscore.Service
	cron     *cron.Cron
	executor *distributed_lock.LockExecutor
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewRecalculationScheduler creates the scheduler. The lock executor is
// optional; without it scheduled sweeps run unguarded on every replica.
func NewRecalculationScheduler(db *gorm.DB, scores *qsscore.Service, executor *distributed_lock.LockExecutor) *RecalculationScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &RecalculationScheduler{
		db:       db,
		scores:   scores,
		cron:     cron.New(cron.WithSeconds()),
		executor: executor,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the cron entry and starts the scheduler
func (s *RecalculationScheduler) Start() error {
	spec := os.Getenv("QS_RECALC_CRON")
	if spec == "" {
		spec = defaultRecalcCron
	}

	if _, err := s.cron.AddFunc(spec, s.runSweep); err != nil {
		return fmt.Errorf("registering recalculation schedule %q: %w", spec, err)
	}

	s.cron.Start()
	log.Printf("QS score recalculation scheduler started, schedule: %s", spec)
	return nil
}

// Stop stops the scheduler
func (s *RecalculationScheduler) Stop() {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Println("QS score recalculation scheduler stopped")
}

// runSweep recalculates every company, optionally guarded by the
// distributed lock so only one replica executes a scheduled sweep.
func (s *RecalculationScheduler) runSweep() {
	if s.executor == nil {
		s.sweepAllCompanies()
		return
	}

	err := s.executor.ExecuteWithLock(s.ctx, "sweep", sweepLockTTL, func() error {
		s.sweepAllCompanies()
		return nil
	})
	if err != nil {
		log.Printf("scheduled recalculation sweep failed to acquire lock: %v", err)
	}
}

func (s *RecalculationScheduler) sweepAllCompanies() {
	var companyIDs []string
	if err := s.db.WithContext(s.ctx).Model(&models.Company{}).Pluck("id", &companyIDs).Error; err != nil {
		log.Printf("loading companies for recalculation sweep failed: %v", err)
		return
	}

	failed := 0
	for _, companyID := range companyIDs {
		if err := s.scores.PerformRecalculation(s.ctx, companyID); err != nil {
			log.Printf("recalculation failed for company %s: %v", companyID, err)
			failed++
		}
	}

	log.Printf("recalculation sweep finished: companies=%d failed=%d", len(companyIDs), failed)
}
