package workperiod

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the work period lifecycle. A register with no record is
// implicitly in the "no open period" state; returning there requires a new
// period row, never a field flip on an old one.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Period is one physical trading session for one register. Once closed it is
// immutable; history is append-only.
type Period struct {
	ID           uuid.UUID
	RegisterID   string
	Status       Status
	OpenedAt     time.Time
	OpenedBy     string
	OpeningFloat decimal.Decimal
	ClosedAt     *time.Time
	ClosedBy     *string
	ClosingCash  *decimal.Decimal
	ExpectedCash *decimal.Decimal
	Variance     *decimal.Decimal
	Notes        string
	CreatedAt    time.Time
}

// OpenInput carries parameters for opening a period.
type OpenInput struct {
	RegisterID   string
	OpeningFloat decimal.Decimal
	UserID       string
	Notes        string
}

// Validate ensures the open request is coherent.
func (in OpenInput) Validate() error {
	if strings.TrimSpace(in.RegisterID) == "" {
		return errors.New("workperiod: register id required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return errors.New("workperiod: user id required")
	}
	if in.OpeningFloat.IsNegative() {
		return ErrInvalidFloat
	}
	return nil
}

// CloseInput carries parameters for closing a period.
type CloseInput struct {
	RegisterID  string
	CountedCash decimal.Decimal
	UserID      string
	Notes       string
}

// Validate ensures the close request is coherent.
func (in CloseInput) Validate() error {
	if strings.TrimSpace(in.RegisterID) == "" {
		return errors.New("workperiod: register id required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return errors.New("workperiod: user id required")
	}
	if in.CountedCash.IsNegative() {
		return ErrInvalidCash
	}
	return nil
}

// CloseRecord is what the store persists at the durability boundary of a
// close. Expected cash and variance are frozen here so the printed Z-report
// matches exactly what was reconciled.
type CloseRecord struct {
	PeriodID     uuid.UUID
	ClosingCash  decimal.Decimal
	ExpectedCash decimal.Decimal
	Variance     decimal.Decimal
	UserID       string
	Notes        string
	ClosedAt     time.Time
}

var (
	// ErrAlreadyOpen indicates a second open attempt while a period is
	// already open for the register.
	ErrAlreadyOpen = errors.New("workperiod: a work period is already open for this register")
	// ErrNoOpenPeriod indicates no open period exists for the register.
	ErrNoOpenPeriod = errors.New("workperiod: no open work period for this register")
	// ErrAlreadyClosed guards against double close submission.
	ErrAlreadyClosed = errors.New("workperiod: work period is already closed")
	// ErrNotFound indicates the referenced period does not exist.
	ErrNotFound = errors.New("workperiod: work period not found")
	// ErrInvalidFloat rejects a negative opening float.
	ErrInvalidFloat = errors.New("workperiod: opening float must not be negative")
	// ErrInvalidCash rejects a negative counted cash amount.
	ErrInvalidCash = errors.New("workperiod: counted cash must not be negative")
	// ErrReportPending signals the period closed durably but the Z-report
	// could not be generated; regeneration has been scheduled.
	ErrReportPending = errors.New("workperiod: period closed, z-report generation pending")
)
