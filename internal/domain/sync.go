package domain

import "time"

// Credential identifies the upstream tenant and carries its access token.
// It is owned by the license management side; the engine only reads it.
type Credential struct {
	LicenseID   string
	LicenseName string
	AccessToken string
	// BaseURL overrides the configured upstream base when set.
	BaseURL string
}

// RawRecord is one decoded JSON object as sent by the ERP.
type RawRecord map[string]any

// Records returns the nested object list stored under key, skipping
// entries that are not objects.
func (r RawRecord) Records(key string) []RawRecord {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]RawRecord, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			out = append(out, RawRecord(v))
		case RawRecord:
			out = append(out, v)
		}
	}
	return out
}

type SyncStatus string

const (
	SyncStatusSucceeded SyncStatus = "succeeded"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncSummary reports the outcome of one run.
type SyncSummary struct {
	RunID      string     `json:"runId"`
	LicenseID  string     `json:"licenseId"`
	Status     SyncStatus `json:"status"`
	Fetched    int        `json:"fetched"`
	Imported   int        `json:"imported"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Unchanged  int        `json:"unchanged"`
	Skipped    int        `json:"skipped"`
	Warnings   int        `json:"warnings"`
	Errors     []string   `json:"errors"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// SyncEvent is published after every run.
type SyncEvent struct {
	Type    string      `json:"type"`
	Summary SyncSummary `json:"summary"`
	Reason  string      `json:"reason,omitempty"`
}

const (
	SyncEventFinished = "sync.finished"
	SyncEventFailed   = "sync.failed"
)
