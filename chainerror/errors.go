// Package chainerror defines the structured error kinds the consensus core
// surfaces to callers, per spec.md 7: Parse, Consensus, Covenant, Invariant,
// and Environmental. It mirrors the teacher's ruleError(ErrorCode, string)
// pattern (see blockchain/shell_validate.go's use of ruleError), generalized
// across packages instead of being private to one.
package chainerror

import "fmt"

// Code classifies a RuleError's failure kind.
type Code int

const (
	ErrParse Code = iota
	ErrConsensus
	ErrCovenant
	ErrEnvironmental
)

func (c Code) String() string {
	switch c {
	case ErrParse:
		return "parse"
	case ErrConsensus:
		return "consensus"
	case ErrCovenant:
		return "covenant"
	case ErrEnvironmental:
		return "environmental"
	default:
		return "unknown"
	}
}

// RuleError is a local, recoverable rejection: the offending block or
// transaction is dropped and the tip is unchanged. It never wraps a host
// stack trace.
type RuleError struct {
	Code        Code
	Description string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// New builds a RuleError, mirroring the teacher's ruleError helper.
func New(code Code, description string) *RuleError {
	return &RuleError{Code: code, Description: description}
}

// InvariantError indicates a consistency failure that must never be
// swallowed: a mismatched treeRoot after applying a block, or an undo log
// entry that could not be replayed. Per spec.md 7, the chain writer halts
// rather than continuing past one.
type InvariantError struct {
	Description string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Description)
}

// NewInvariant builds an InvariantError. Every call site represents a
// condition the writer must halt on rather than recover from, so it is
// logged at error level here rather than left to each caller to remember.
func NewInvariant(description string) *InvariantError {
	log.Errorf("invariant violation: %s", description)
	return &InvariantError{Description: description}
}
