package purchase

import (
	"errors"
	"fmt"
)

// State is the orchestrator's position in the approve→buy sequence.
type State int

const (
	StateIdle State = iota
	StateCheckingAllowance
	StateNeedsApproval
	StateApproving
	StateAwaitingApprovalConfirmation
	StateApproved
	StateBuying
	StateAwaitingPurchaseConfirmation
	StateSuccess
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:                         "idle",
	StateCheckingAllowance:            "checking-allowance",
	StateNeedsApproval:                "needs-approval",
	StateApproving:                    "approving",
	StateAwaitingApprovalConfirmation: "awaiting-approval-confirmation",
	StateApproved:                     "approved",
	StateBuying:                       "buying",
	StateAwaitingPurchaseConfirmation: "awaiting-purchase-confirmation",
	StateSuccess:                      "success",
	StateFailed:                       "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether a new intent may be accepted from s.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateSuccess || s == StateFailed
}

// ErrorKind classifies a purchase failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindBelowMinimum
	KindAboveMaximum
	KindInsufficientBalance
	KindApprovalInsufficient
	KindUserRejected
	KindSubmissionFailed
	KindReverted
	KindReadFailed
	KindAmbiguous
	KindUnsupportedNetwork
)

var kindNames = map[ErrorKind]string{
	KindNone:                 "none",
	KindBelowMinimum:         "below-minimum",
	KindAboveMaximum:         "above-maximum",
	KindInsufficientBalance:  "insufficient-balance",
	KindApprovalInsufficient: "approval-insufficient",
	KindUserRejected:         "user-rejected",
	KindSubmissionFailed:     "submission-failed",
	KindReverted:             "reverted",
	KindReadFailed:           "read-failed",
	KindAmbiguous:            "ambiguous",
	KindUnsupportedNetwork:   "unsupported-network",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a classified failure together with the raw underlying
// message for diagnostics.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Sentinels.
var (
	// ErrSessionActive is returned when a non-terminal session exists for
	// the identity. The active session is left untouched.
	ErrSessionActive = errors.New("a purchase session is already in progress")

	// ErrRejected marks a submission the signer declined before broadcast.
	// Ledger client implementations wrap it so the orchestrator can
	// distinguish a user rejection from an RPC failure.
	ErrRejected = errors.New("rejected by signer")
)
