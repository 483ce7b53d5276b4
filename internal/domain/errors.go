package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ErrIdentityUnresolved is returned when a party fragment carries no usable
// external identifier. Callers drop the fragment.
var ErrIdentityUnresolved = errors.New("party identity unresolved")

// ErrSyncInProgress is returned when another run holds the license lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// MissingContractIDError marks a contract payload without a usable id_contrato_con.
type MissingContractIDError struct {
	Raw string
}

func (e *MissingContractIDError) Error() string {
	if e.Raw == "" {
		return "contract id missing"
	}
	return fmt.Sprintf("contract id unparsable: %q", e.Raw)
}

// UpstreamFetchError is fatal for the run that produced it.
type UpstreamFetchError struct {
	LicenseID  string
	Resource   string
	Page       int
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	msg := fmt.Sprintf("upstream fetch failed (license=%s resource=%s page=%d", e.LicenseID, e.Resource, e.Page)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// StorageCommitError means the run transaction was rolled back.
type StorageCommitError struct {
	LicenseID string
	Err       error
}

func (e *StorageCommitError) Error() string {
	return fmt.Sprintf("storage commit failed (license=%s): %v", e.LicenseID, e.Err)
}

func (e *StorageCommitError) Unwrap() error { return e.Err }

// FieldIssue is a recoverable data-quality finding: the value was present but
// could not be parsed, so the documented default was stored instead.
type FieldIssue struct {
	ContractID int64  `json:"contractId"`
	Field      string `json:"field"`
	Raw        string `json:"raw"`
}

func (i FieldIssue) String() string {
	return fmt.Sprintf("contract %d: unparsable %s %q", i.ContractID, i.Field, i.Raw)
}
