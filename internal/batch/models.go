// Package batch runs search-job fan-out: a submitted list of inputs is
// processed in bounded chunks through provider failover, with durable
// per-chunk progress.
package batch

import (
	"time"

	"personlens/internal/correlate"
	id "personlens/pkg/domain"
)

// Status is the job lifecycle state. COMPLETED and FAILED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether the job can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ItemStatus is the per-input outcome.
type ItemStatus string

const (
	ItemSuccess  ItemStatus = "success"
	ItemNotFound ItemStatus = "not_found"
	ItemError    ItemStatus = "error"
)

// ItemResult is the outcome for one input. Every submitted input yields
// exactly one result, failures included.
type ItemResult struct {
	Input           string                   `json:"input"`
	Kind            string                   `json:"kind"`
	Status          ItemStatus               `json:"status"`
	Provider        string                   `json:"provider,omitempty"`
	Profile         *correlate.PersonProfile `json:"profile,omitempty"`
	ConfidenceScore int                      `json:"confidenceScore,omitempty"`
	DataQuality     string                   `json:"dataQuality,omitempty"`
	Error           string                   `json:"error,omitempty"`
}

// Job is a batch search job. The orchestrator mutates it in place as chunks
// complete; counters only advance at chunk boundaries.
type Job struct {
	ID             id.JobID     `json:"id"`
	UserID         id.UserID    `json:"userId"`
	Status         Status       `json:"status"`
	Inputs         []string     `json:"inputs"`
	ProcessedCount int          `json:"processedCount"`
	SuccessCount   int          `json:"successCount"`
	ErrorCount     int          `json:"errorCount"`
	Results        []ItemResult `json:"results"`
	FailureReason  string       `json:"failureReason,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
}
