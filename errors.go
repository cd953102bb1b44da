package fundround

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Whitelist kinds carried by UnauthorizedError.
const (
	ListProposer = "proposer"
	ListVoter    = "voter"
	ListOwner    = "owner"
)

// Period kinds carried by InvalidPeriodError.
const (
	PeriodProposal = "proposal"
	PeriodVoting   = "voting"
)

var (
	// ErrRoundNotFound is returned when an operation runs before the
	// round state exists.
	ErrRoundNotFound = errors.New("round state not found")
	// ErrRoundExists is returned by a second Instantiate on a host.
	ErrRoundExists = errors.New("round already instantiated")
	// ErrNoFunds is returned when a vote carries no attached value.
	ErrNoFunds = errors.New("vote requires attached funds")
	// ErrInsufficientFunds is returned by the bank when a transfer
	// exceeds the sender balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrOverflow is returned when an amount exceeds 256 bits.
	ErrOverflow = errors.New("amount overflow")
)

// UnauthorizedError signals that the sender is not a member of the
// whitelist checked by the operation.
type UnauthorizedError struct {
	ListType string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: sender address not in %s list", e.ListType)
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(listType string) *UnauthorizedError {
	return &UnauthorizedError{ListType: listType}
}

// InvalidPeriodError signals that a time-gated operation ran outside
// its window, or that a period transition ran out of order.
type InvalidPeriodError struct {
	PeriodType string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid %s period", e.PeriodType)
}

// NewInvalidPeriodError creates a new InvalidPeriodError.
func NewInvalidPeriodError(periodType string) *InvalidPeriodError {
	return &InvalidPeriodError{PeriodType: periodType}
}

// InvalidProposalError signals a reference to a proposal id that does
// not exist.
type InvalidProposalError struct {
	ID uint32
}

func (e *InvalidProposalError) Error() string {
	return fmt.Sprintf("invalid proposal id: %d", e.ID)
}

// NewInvalidProposalError creates a new InvalidProposalError.
func NewInvalidProposalError(id uint32) *InvalidProposalError {
	return &InvalidProposalError{ID: id}
}

// IsUnauthorized checks whether an error is an UnauthorizedError and
// returns it.
func IsUnauthorized(err error) (*UnauthorizedError, bool) {
	var e *UnauthorizedError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsInvalidPeriod checks whether an error is an InvalidPeriodError and
// returns it.
func IsInvalidPeriod(err error) (*InvalidPeriodError, bool) {
	var e *InvalidPeriodError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsInvalidProposal checks whether an error is an InvalidProposalError
// and returns it.
func IsInvalidProposal(err error) (*InvalidProposalError, bool) {
	var e *InvalidProposalError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// --- Result codes ---

// Result codes reported by hosts. Zero is success.
const (
	CodeOK uint32 = iota
	CodeUnauthorized
	CodeInvalidPeriod
	CodeInvalidProposal
	CodeNoFunds
	CodeInsufficientFunds
	CodeRoundNotFound
	CodeRoundExists
	CodeOverflow
	CodeInternal
)

// ResultCode maps an error to its result code and the detail string
// needed to rebuild it with ErrorFromResult.
func ResultCode(err error) (code uint32, detail string) {
	if err == nil {
		return CodeOK, ""
	}
	if e, ok := IsUnauthorized(err); ok {
		return CodeUnauthorized, e.ListType
	}
	if e, ok := IsInvalidPeriod(err); ok {
		return CodeInvalidPeriod, e.PeriodType
	}
	if e, ok := IsInvalidProposal(err); ok {
		return CodeInvalidProposal, strconv.FormatUint(uint64(e.ID), 10)
	}
	switch {
	case errors.Is(err, ErrNoFunds):
		return CodeNoFunds, ""
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds, ""
	case errors.Is(err, ErrRoundNotFound):
		return CodeRoundNotFound, ""
	case errors.Is(err, ErrRoundExists):
		return CodeRoundExists, ""
	case errors.Is(err, ErrOverflow):
		return CodeOverflow, ""
	}
	return CodeInternal, ""
}

// ErrorFromResult rebuilds an error from a host result. It returns nil
// for CodeOK. Typed errors come back as their typed form. Internal
// errors keep only their message.
func ErrorFromResult(code uint32, info, detail string) error {
	switch code {
	case CodeOK:
		return nil
	case CodeUnauthorized:
		return NewUnauthorizedError(detail)
	case CodeInvalidPeriod:
		return NewInvalidPeriodError(detail)
	case CodeInvalidProposal:
		id, err := strconv.ParseUint(detail, 10, 32)
		if err != nil {
			return errors.Errorf("invalid proposal result detail %q: %s", detail, info)
		}
		return NewInvalidProposalError(uint32(id))
	case CodeNoFunds:
		return ErrNoFunds
	case CodeInsufficientFunds:
		return ErrInsufficientFunds
	case CodeRoundNotFound:
		return ErrRoundNotFound
	case CodeRoundExists:
		return ErrRoundExists
	case CodeOverflow:
		return ErrOverflow
	default:
		return errors.New(info)
	}
}
