// Package errors provides error handling for recruitpulse.
//
// It re-exports github.com/cockroachdb/errors, giving every error a stack
// trace, wrap-with-context helpers, and structured details that survive
// logging boundaries.
//
// Usage:
//
//	// Create new error
//	err := errors.New("call provider returned no run id")
//
//	// Wrap with context
//	if err := store.Update(entry); err != nil {
//	    return errors.Wrap(err, "failed to update queue entry")
//	}
//
//	// Attach operator-facing details
//	err = errors.WithDetail(err, fmt.Sprintf("Candidate ID: %d", id))
//
//	// Check errors
//	if errors.Is(err, sql.ErrNoRows) {
//	    // handle not found
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Multi-error support
var (
	Join          = crdb.Join
	CombineErrors = crdb.CombineErrors
)
