package models

import "time"

// SyncRun is written after the run transaction, so it has no foreign key to
// licenses: a run can fail before its license row exists.
type SyncRun struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	LicenseID  string    `json:"licenseID" gorm:"type:text;not null;index:idx_sync_run_license"`
	Status     string    `json:"status" gorm:"type:text;not null"`
	Fetched    int       `json:"fetched"`
	Imported   int       `json:"imported"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Skipped    int       `json:"skipped"`
	Warnings   int       `json:"warnings"`
	Errors     string    `json:"errors" gorm:"type:text"`
	StartedAt  time.Time `json:"startedAt" gorm:"not null;index:idx_sync_run_license"`
	FinishedAt time.Time `json:"finishedAt"`
}
