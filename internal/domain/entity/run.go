package entity

import (
	"errors"
	"time"
)

// ErrUnknownAction is returned for an action name outside Actions
var ErrUnknownAction = errors.New("unknown automation action")

// RunSource tells who started an automation run
type RunSource string

const (
	RunSourceManual    RunSource = "manual"
	RunSourceScheduled RunSource = "scheduled"
	RunSourceCLI       RunSource = "cli"
)

// RunStatus mirrors the backend's status field
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// Run records one automation action invocation
type Run struct {
	ID         int64     `json:"id"`
	Action     Action    `json:"action"`
	Source     RunSource `json:"source"`
	Status     RunStatus `json:"status"`
	Message    string    `json:"message"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Succeeded reports whether the backend answered status "success"
func (r *Run) Succeeded() bool {
	return r.Status == RunStatusSuccess
}

// Duration is the wall time of the run
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
