package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/go-co-op/gocron/v2"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskDuplicate = errors.New("task already registered")
)

type TaskFn func(ctx context.Context) error

// Scheduler is the single registry of periodic tasks. Every task runs in singleton mode,
// gets its own request id and never takes the process down on panic.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu    sync.RWMutex
	tasks map[string]TaskFn
}

func New() *Scheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err.Error())
	}
	return &Scheduler{scheduler: scheduler, tasks: make(map[string]TaskFn)}
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		slog.Error("Scheduler shutdown error", slog.String("err", err.Error()))
	}
}

func (s *Scheduler) RegisterTask(name string, interval time.Duration, fn TaskFn, startImmediately bool) error {
	return s.register(gocron.DurationJob(interval), name, fn, startImmediately)
}

// RegisterCronTask accepts crontabs with an optional leading seconds field.
func (s *Scheduler) RegisterCronTask(name, crontab string, fn TaskFn, startImmediately bool) error {
	return s.register(gocron.CronJob(crontab, true), name, fn, startImmediately)
}

// RunTask invokes a registered task right away, outside of its schedule.
func (s *Scheduler) RunTask(ctx context.Context, name string) error {
	s.mu.RLock()
	fn, ok := s.tasks[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}

	return s.run(ctx, name, fn)
}

func (s *Scheduler) register(jobDefinition gocron.JobDefinition, name string, fn TaskFn, startImmediately bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("%w: %s", ErrTaskDuplicate, name)
	}

	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}

	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		jobDefinition,
		gocron.NewTask(func(ctx context.Context) {
			_ = s.run(ctx, name, fn)
		}),
		opts...,
	)
	if err != nil {
		slog.Error("Scheduler creating job error", slog.String("jobName", name), slog.String("err", err.Error()))
		return fmt.Errorf("create job %s: %w", name, err)
	}

	s.tasks[name] = fn
	return nil
}

func (s *Scheduler) run(ctx context.Context, jobName string, fn TaskFn) (err error) {
	ctx = utils.CreateCtxWithRqID(ctx, "")
	rqID := utils.GetRequestIDFromCtx(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error(
				"Panic recovered in scheduler job",
				slog.String("rqID", rqID),
				slog.String("jobName", jobName),
				slog.Any("panic", r),
				slog.String("stacktrace", string(debug.Stack())),
			)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	slog.Info("job start", slog.String("rqID", rqID), slog.String("jobName", jobName))

	err = fn(ctx)
	if err != nil {
		slog.Error("job failed", slog.String("rqID", rqID), slog.String("jobName", jobName), slog.Any("error", err), slog.Duration("duration", time.Since(start)))
	} else {
		slog.Info("job completed", slog.String("rqID", rqID), slog.String("jobName", jobName), slog.Duration("duration", time.Since(start)))
	}

	return err
}
