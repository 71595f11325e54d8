package models

import (
	"time"
)

// DocumentStatus is the catalog-visible lifecycle state of a document.
type DocumentStatus string

const (
	StatusPending            DocumentStatus = "pending"
	StatusProcessing         DocumentStatus = "processing"
	StatusReady              DocumentStatus = "ready"
	StatusWaitingForAnalysis DocumentStatus = "waitingForAnalysis"
	StatusError              DocumentStatus = "error"
)

// ProcessingStatus tracks the outcome of the most recent pipeline attempt,
// independently of the catalog status.
type ProcessingStatus string

const (
	ProcessingNone         ProcessingStatus = "none"
	ProcessingActive       ProcessingStatus = "processing"
	ProcessingFailed       ProcessingStatus = "failed"
	ProcessingRepairFailed ProcessingStatus = "repairFailed"
)

// DocumentRecord is one scanned archival document as the orchestrator sees it.
type DocumentRecord struct {
	ID               string           `json:"id"`
	Status           DocumentStatus   `json:"status"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	Stages           []StageName      `json:"stages"`
	LastUpdated      time.Time        `json:"lastUpdated"`
	DBID             string           `json:"dbId,omitempty"`
	PageCount        int              `json:"pageCount"`
	AnalysisComplete bool             `json:"analysisComplete"`
	DocumentURL      string           `json:"documentUrl,omitempty"`
	ArchiveID        string           `json:"archiveId,omitempty"`
}

// UpdateType classifies a ProcessingUpdate for consumers.
type UpdateType string

const (
	UpdateProcessing UpdateType = "processing"
	UpdateComplete   UpdateType = "complete"
	UpdateError      UpdateType = "error"
)

// ProcessingUpdate is the observable projection of one document's job,
// published to the status board and the API surface.
type ProcessingUpdate struct {
	Status   string     `json:"status"`
	Message  string     `json:"message"`
	Progress float64    `json:"progress,omitempty"`
	Type     UpdateType `json:"type"`
}

// JobKind distinguishes the normal processing path from the repair path.
type JobKind string

const (
	JobProcess JobKind = "process"
	JobRepair  JobKind = "repair"
)
