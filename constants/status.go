package constants

// LeadStatus is the canonical status for rows in leads.
type LeadStatus string

// Stable values (store these exact strings in DB).
const (
	StatusReadyToProcess LeadStatus = "READY_TO_PROCESS" // ingested, eligible for a batch run
	StatusPriority       LeadStatus = "PRIORITY"         // high-score lead, fetched before the rest
	StatusInProgress     LeadStatus = "IN_PROGRESS"      // claimed by a run
	StatusReadyRetry     LeadStatus = "READY_RETRY"      // released after a failed attempt
	StatusFailed         LeadStatus = "FAILED"           // terminal failure
	StatusDone           LeadStatus = "DONE"             // terminal success
)

// EligibleStatuses are the statuses a claim may transition from.
var EligibleStatuses = []LeadStatus{
	StatusReadyToProcess,
	StatusPriority,
	StatusReadyRetry,
}

// Terminal reports whether s is a state no further attempt starts from.
func (s LeadStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// RunStatus is the canonical status for rows in batch_runs.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusComplete RunStatus = "COMPLETE"
	RunStatusFailed   RunStatus = "FAILED"
)
