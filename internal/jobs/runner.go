// Package jobs holds the periodic background loops: the bot dispatcher and
// the completion poller, driven by a shared scheduler.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Task is one periodic background loop. A run must finish before the next
// tick fires; the runner enforces that with singleton scheduling.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// runTimeout bounds one loop iteration so a hung provider call cannot
// starve subsequent ticks.
const runTimeout = 5 * time.Minute

// Runner drives registered tasks on fixed intervals. A task may carry a cron
// expression override instead of an interval; expressions are validated at
// registration time.
type Runner struct {
	scheduler  gocron.Scheduler
	instanceID string
}

// NewRunner creates a new task runner
func NewRunner() (*Runner, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Runner{
		scheduler:  scheduler,
		instanceID: uuid.New().String(),
	}, nil
}

// Register schedules a task. cronExpr, when non-empty, overrides interval.
func (r *Runner) Register(task Task, interval time.Duration, cronExpr string) error {
	var definition gocron.JobDefinition
	if cronExpr != "" {
		if _, err := cron.ParseStandard(cronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q for task %s: %w", cronExpr, task.Name(), err)
		}
		definition = gocron.CronJob(cronExpr, false)
	} else {
		definition = gocron.DurationJob(interval)
	}

	_, err := r.scheduler.NewJob(
		definition,
		gocron.NewTask(func() {
			r.runTask(task)
		}),
		gocron.WithName(task.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register task %s: %w", task.Name(), err)
	}

	log.Printf("⏰ [JOBS] Registered task %s (interval %v, cron %q)", task.Name(), interval, cronExpr)
	return nil
}

func (r *Runner) runTask(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		log.Printf("❌ [JOBS] Task %s failed after %v: %v", task.Name(), time.Since(start), err)
		return
	}
	log.Printf("✅ [JOBS] Task %s completed in %v", task.Name(), time.Since(start))
}

// Start begins firing registered tasks.
func (r *Runner) Start() {
	r.scheduler.Start()
	log.Printf("🚀 [JOBS] Runner %s started", r.instanceID)
}

// Stop shuts the scheduler down, waiting for in-progress runs.
func (r *Runner) Stop() error {
	log.Println("🛑 [JOBS] Stopping runner...")
	return r.scheduler.Shutdown()
}
