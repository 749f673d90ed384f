package tasks

import "time"

// Config controls the background import queue. Archive imports are heavy,
// single-shot jobs that all write into the same vault and store, so the
// default is one worker.
type Config struct {
	// Workers is the number of concurrent queue workers. Default: 1
	Workers int

	// ReleaseAfter is when a stuck import is released back to the queue.
	// Default: 30m
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are swept. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns queue defaults suited to archive imports.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    30 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}
