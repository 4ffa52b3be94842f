// Package scheduler runs the storefront's periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// JobStatus represents the outcome of the latest run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a named task run every Interval
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job immediately instead of waiting one interval
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// JobState is a snapshot of a job's run history
type JobState struct {
	Name      string     `json:"name"`
	Status    JobStatus  `json:"status"`
	Runs      int64      `json:"runs"`
	Failures  int64      `json:"failures"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Config holds scheduler configuration
type Config struct {
	// JobTimeout bounds every single run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{JobTimeout: 5 * time.Minute}
}

type jobEntry struct {
	job   Job
	state JobState
	busy  bool
}

// Scheduler runs interval jobs until stopped
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*jobEntry
	order     []string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return fmt.Errorf("%w: job %q needs a name, a run func and a positive interval", ErrInvalidConfig, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = &jobEntry{
		job:   job,
		state: JobState{Name: job.Name, Status: JobStatusPending},
	}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, name := range s.order {
		entry := s.jobs[name]
		s.wg.Add(1)
		go s.loop(ctx, entry.job)
		s.logger.Info("Scheduled job",
			zap.String("job", name),
			zap.Duration("interval", entry.job.Interval),
		)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.order)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for their loops to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs a registered job once, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	entry, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.runOnce(ctx, entry.job)
}

// States returns a snapshot of every job in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.jobs[name].state)
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	if job.RunOnStart {
		_ = s.runOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Job loop stopping", zap.String("job", job.Name))
			return
		case <-ticker.C:
			_ = s.runOnce(ctx, job)
		}
	}
}

// runOnce executes one run with a timeout. Overlapping runs of the same job are skipped.
func (s *Scheduler) runOnce(ctx context.Context, job Job) (err error) {
	if !s.begin(job.Name) {
		s.logger.Warn("Job still running, skipping", zap.String("job", job.Name))
		return fmt.Errorf("%w: %s", ErrJobBusy, job.Name)
	}

	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	jobCtx, span := telemetry.StartSpan(jobCtx, "scheduler", job.Name,
		attribute.String(telemetry.SpanAttrJob, job.Name))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
			s.logger.Error("Job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r),
			)
		}
		s.finish(job.Name, start, err)
	}()

	s.logger.Debug("Running job", zap.String("job", job.Name))
	telemetry.WithProfilingLabels(jobCtx, telemetry.OperationLabels(job.Name), func(c context.Context) {
		err = job.Run(c)
	})
	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Job completed",
		zap.String("job", job.Name),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *Scheduler) begin(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.jobs[name]
	if entry.busy {
		return false
	}
	entry.busy = true
	entry.state.Status = JobStatusRunning
	return true
}

func (s *Scheduler) finish(name string, start time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.jobs[name]
	entry.busy = false
	entry.state.Runs++
	entry.state.LastRunAt = &start
	if err != nil {
		entry.state.Status = JobStatusFailed
		entry.state.Failures++
		entry.state.LastError = err.Error()
		return
	}
	entry.state.Status = JobStatusSuccess
	entry.state.LastError = ""
}
