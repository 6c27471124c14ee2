/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All engine error types in one place. The HTTP layer maps these onto
  status codes with IsClientError / IsConflict; everything else is a
  server-side failure.

ERROR PHILOSOPHY:
  Malformed DATA never errors - calculators degrade to sentinel values
  ("Not Found", "NA") because the upstream exports are uncontrolled.
  Errors are reserved for ACTIONS that must be blocked: no team
  selected, an overlapping run, an invalid configuration, a bad upload.

SEE ALSO:
  - reconcile.go: Uses ErrNoTeam and ErrRunInProgress
  - sbd.go:       Uses ErrOverlappingPeriods
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoTeam is returned when an operation is attempted without an
	// active team. Nothing may touch the store without one.
	ErrNoTeam = errors.New("no active team selected")

	// ErrRunInProgress is returned when a reconciliation run is
	// requested while another run for the same reconciler is still
	// executing. Overlapping runs are rejected, never raced.
	ErrRunInProgress = errors.New("reconciliation run already in progress")

	// ErrOverlappingPeriods is returned when an SBD configuration
	// contains date periods that overlap. The configuration is never
	// persisted in that state.
	ErrOverlappingPeriods = errors.New("sbd periods overlap")

	// ErrInvalidUpload is returned when an uploaded file fails name or
	// shape validation before any table is touched.
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrTableNotFound is returned when a requested snapshot does not
	// exist for the team.
	ErrTableNotFound = errors.New("table not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UploadError describes a rejected upload.
type UploadError struct {
	Filename string
	Reason   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("invalid upload %q: %s", e.Filename, e.Reason)
}

func (e *UploadError) Unwrap() error { return ErrInvalidUpload }

// PeriodOverlapError identifies which two SBD periods collide.
type PeriodOverlapError struct {
	First  int // zero-based period indexes
	Second int
}

func (e *PeriodOverlapError) Error() string {
	return fmt.Sprintf("sbd periods %d and %d overlap", e.First+1, e.Second+1)
}

func (e *PeriodOverlapError) Unwrap() error { return ErrOverlappingPeriods }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client
// input and should surface as a 4xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoTeam) ||
		errors.Is(err, ErrOverlappingPeriods) ||
		errors.Is(err, ErrInvalidUpload) ||
		errors.Is(err, ErrTableNotFound)
}

// IsConflict returns true if the error indicates a serialized-run
// conflict (retry after the current run finishes).
func IsConflict(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
