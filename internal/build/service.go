package build

import (
	"context"
	"time"
)

// Service runs batch builds. The CLI and tests go through this interface.
type Service interface {
	Run(ctx context.Context) (*Result, error)
}

// Result is the outcome of one build.
type Result struct {
	BuildID   string
	Status    Status
	Pages     int
	Failed    int // Pages that produced no html
	Errors    []error
	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// Status represents the outcome of a build.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusWarning   Status = "warning" // Finished with accumulated errors
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess reports whether every page rendered without errors.
func (s Status) IsSuccess() bool { return s == StatusSuccess }
