package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering a job after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when two jobs share a name
	ErrDuplicateJob = errors.New("job already registered")

	// ErrJobBusy is returned when a run is requested while the previous one is still going
	ErrJobBusy = errors.New("job is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
