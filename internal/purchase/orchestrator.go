// Package purchase implements the approve→buy state machine. A single
// goroutine drives each session through its phases, so transitions are
// strictly sequential; Submit and Reset are the only entry points and both
// refuse to touch a session that is mid-flight.
package purchase

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/ledger"
)

// maxUint256 is the unlimited-approval amount.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// readBackoff is the delay before the single read retry. Package-level so
// tests can shorten it.
var readBackoff = 500 * time.Millisecond

// TxRef is a pending-transaction reference (the broadcast hash).
type TxRef string

// LedgerClient is the external collaborator that performs on-chain reads,
// submissions, and confirmation waits for one identity. Writes are never
// retried here or by the orchestrator.
type LedgerClient interface {
	ChainID(ctx context.Context) (int64, error)
	Allowance(ctx context.Context) (*big.Int, error)
	PaymentBalance(ctx context.Context) (*big.Int, error)
	// SubmitApproval asks the spender approval for amount. Implementations
	// wrap ErrRejected when the signer declines before broadcast.
	SubmitApproval(ctx context.Context, amount *big.Int) (TxRef, error)
	SubmitPurchase(ctx context.Context, amount *big.Int, referral string) (TxRef, error)
	// Confirm blocks until ref is durably accepted, wrapping
	// chain.ErrConfirmTimeout when the outcome stays unknown.
	Confirm(ctx context.Context, ref TxRef, timeout time.Duration) error
}

// Intent is the user's requested purchase. Immutable once submitted.
type Intent struct {
	PaymentAmount *big.Int // payment base units
	TokenAmount   *big.Int // informational, derived at form time
	ReferralCode  string
}

// Session is a snapshot of the single mutable purchase entity.
type Session struct {
	State         State
	Intent        *Intent
	ApprovalTxRef TxRef
	PurchaseTxRef TxRef
	ErrorKind     ErrorKind
	ErrorMessage  string
}

// Options configures an Orchestrator.
type Options struct {
	MinPurchase       *big.Int
	MaxPurchase       *big.Int
	UnlimitedApproval bool
	ConfirmTimeout    time.Duration
	Cooldown          time.Duration // auto-reset delay after a rejected/failed submit; default 5s
	TargetChainID     int64         // 0 disables the network guard
	Observer          func(Session) // called after every transition, outside the lock
}

// Orchestrator owns the PurchaseSession for one identity.
type Orchestrator struct {
	client LedgerClient
	cache  *ledger.Cache
	opts   Options

	mu      sync.Mutex
	session Session
	gen     uint64 // bumped per accepted intent; stale goroutines check it
	done    chan struct{}
}

// New creates an orchestrator for one identity's ledger client. The cache,
// when non-nil, receives a forced refresh after a confirmed purchase.
func New(client LedgerClient, cache *ledger.Cache, opts Options) *Orchestrator {
	if opts.Cooldown == 0 {
		opts.Cooldown = 5 * time.Second
	}
	if opts.ConfirmTimeout == 0 {
		opts.ConfirmTimeout = 120 * time.Second
	}
	return &Orchestrator{
		client:  client,
		cache:   cache,
		opts:    opts,
		session: Session{State: StateIdle},
	}
}

// Current returns a snapshot of the session.
func (o *Orchestrator) Current() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Submit validates and accepts a new intent. It is rejected with
// ErrSessionActive while a session is non-terminal, and with a classified
// *Error when the amount is outside the configured bounds — neither touches
// the existing session. On acceptance the state machine starts in a
// background goroutine; abandoning the caller does not cancel the chain
// operations it issues.
func (o *Orchestrator) Submit(intent Intent) error {
	if intent.PaymentAmount == nil || intent.PaymentAmount.Sign() <= 0 {
		return &Error{Kind: KindBelowMinimum, Message: "payment amount must be positive"}
	}
	if o.opts.MinPurchase != nil && intent.PaymentAmount.Cmp(o.opts.MinPurchase) < 0 {
		return &Error{Kind: KindBelowMinimum, Message: "amount is below the minimum purchase"}
	}
	if o.opts.MaxPurchase != nil && intent.PaymentAmount.Cmp(o.opts.MaxPurchase) > 0 {
		return &Error{Kind: KindAboveMaximum, Message: "amount is above the maximum purchase"}
	}

	o.mu.Lock()
	if !o.session.State.Terminal() {
		o.mu.Unlock()
		return ErrSessionActive
	}
	o.gen++
	gen := o.gen
	o.done = make(chan struct{})
	o.session = Session{State: StateCheckingAllowance, Intent: &intent}
	snapshot := o.session
	o.mu.Unlock()

	o.notify(snapshot)
	go o.run(gen, intent)
	return nil
}

// Reset clears a terminal session back to Idle. It refuses to interrupt a
// session that is still in flight.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.State != StateSuccess && o.session.State != StateFailed && o.session.State != StateIdle {
		return ErrSessionActive
	}
	o.gen++
	o.session = Session{State: StateIdle}
	return nil
}

// Wait blocks until the current session reaches a terminal state or ctx is
// cancelled. Cancelling only detaches the caller; the session keeps running.
// On Failed the session's classified error is returned.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	s := o.Current()
	if s.State == StateFailed {
		return &Error{Kind: s.ErrorKind, Message: s.ErrorMessage}
	}
	return nil
}

// run drives one accepted intent through the state machine. All chain
// operations use a background context: a detached caller must not cancel an
// already-broadcast transaction.
func (o *Orchestrator) run(gen uint64, intent Intent) {
	ctx := context.Background()

	// Network guard: refuse to operate against the wrong chain.
	if o.opts.TargetChainID != 0 {
		id, err := o.client.ChainID(ctx)
		if err != nil {
			o.fail(gen, KindReadFailed, err)
			return
		}
		if id != o.opts.TargetChainID {
			o.fail(gen, KindUnsupportedNetwork, errors.New("connected chain does not match the configured target"))
			return
		}
	}

	// Phase 1: allowance. The chain is the source of truth — a sufficient
	// live allowance skips approval entirely.
	allowance, err := o.readWithRetry(ctx, o.client.Allowance)
	if err != nil {
		o.fail(gen, KindReadFailed, err)
		return
	}

	if allowance.Cmp(intent.PaymentAmount) < 0 {
		if !o.setState(gen, StateNeedsApproval) {
			return
		}
		if !o.approve(ctx, gen, intent) {
			return
		}
	}

	if !o.setState(gen, StateApproved) {
		return
	}

	// Phase 2: buy. Balances can change between form entry and submission;
	// re-check the live balance immediately before submitting.
	balance, err := o.readWithRetry(ctx, o.client.PaymentBalance)
	if err != nil {
		o.fail(gen, KindReadFailed, err)
		return
	}
	if balance.Cmp(intent.PaymentAmount) < 0 {
		o.fail(gen, KindInsufficientBalance, errors.New("live balance is below the requested amount"))
		return
	}

	if !o.setState(gen, StateBuying) {
		return
	}
	ref, err := o.client.SubmitPurchase(ctx, intent.PaymentAmount, intent.ReferralCode)
	if err != nil {
		o.failSubmission(gen, err)
		return
	}

	o.mu.Lock()
	if o.gen == gen {
		o.session.PurchaseTxRef = ref
	}
	o.mu.Unlock()
	if !o.setState(gen, StateAwaitingPurchaseConfirmation) {
		return
	}

	if err := o.client.Confirm(ctx, ref, o.opts.ConfirmTimeout); err != nil {
		o.failConfirmation(gen, err)
		return
	}

	// Confirmed: force-refresh cached ledger state instead of waiting for
	// the next timer round, then clear the intent.
	if o.cache != nil {
		o.cache.RefreshAll(ctx, ledger.KeyPaymentBalance, ledger.KeyTokenBalance, ledger.KeyAllowance) //nolint:errcheck
	}

	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return
	}
	o.session.State = StateSuccess
	o.session.Intent = nil
	snapshot := o.session
	done := o.done
	o.mu.Unlock()

	o.notify(snapshot)
	close(done)
}

// approve runs the approval leg. Returns false when the session has failed
// or been superseded.
func (o *Orchestrator) approve(ctx context.Context, gen uint64, intent Intent) bool {
	if !o.setState(gen, StateApproving) {
		return false
	}

	amount := intent.PaymentAmount
	if o.opts.UnlimitedApproval {
		// Maximum-representable approval avoids repeated prompts on later
		// purchases. Exact-amount approval is the minimal-privilege
		// alternative, selected via configuration.
		amount = maxUint256
	}

	ref, err := o.client.SubmitApproval(ctx, amount)
	if err != nil {
		o.failSubmission(gen, err)
		return false
	}

	o.mu.Lock()
	if o.gen == gen {
		o.session.ApprovalTxRef = ref
	}
	o.mu.Unlock()
	if !o.setState(gen, StateAwaitingApprovalConfirmation) {
		return false
	}

	if err := o.client.Confirm(ctx, ref, o.opts.ConfirmTimeout); err != nil {
		o.failConfirmation(gen, err)
		return false
	}

	// Do not trust the submitted amount: re-read the allowance and require
	// it to cover the intent.
	allowance, err := o.readWithRetry(ctx, o.client.Allowance)
	if err != nil {
		o.fail(gen, KindReadFailed, err)
		return false
	}
	if allowance.Cmp(intent.PaymentAmount) < 0 {
		o.fail(gen, KindApprovalInsufficient, errors.New("confirmed allowance does not cover the requested amount"))
		return false
	}
	return true
}

// readWithRetry retries a failed read once with backoff. Writes never get
// this treatment.
func (o *Orchestrator) readWithRetry(ctx context.Context, read func(context.Context) (*big.Int, error)) (*big.Int, error) {
	v, err := read(ctx)
	if err == nil {
		return v, nil
	}
	time.Sleep(readBackoff)
	return read(ctx)
}

// setState advances the session if it still belongs to gen. Returns false
// when a newer intent has superseded this goroutine.
func (o *Orchestrator) setState(gen uint64, s State) bool {
	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return false
	}
	o.session.State = s
	snapshot := o.session
	o.mu.Unlock()
	o.notify(snapshot)
	return true
}

// failSubmission classifies a submit-phase error: a signer rejection is
// distinct from a broadcast failure, and both auto-reset after a cool-down
// so the form becomes usable again without a manual reset.
func (o *Orchestrator) failSubmission(gen uint64, err error) {
	if errors.Is(err, ErrRejected) {
		o.fail(gen, KindUserRejected, err)
	} else {
		o.fail(gen, KindSubmissionFailed, err)
	}
}

// failConfirmation classifies a post-broadcast Confirm error. An expired
// wait is the most severe class: the transaction may or may not have
// settled, so it is never resubmitted and the user must verify externally.
// A definitive revert is terminal too, but unambiguous; unlike a pre-
// broadcast failure it never auto-resets, so the failed tx stays visible.
func (o *Orchestrator) failConfirmation(gen uint64, err error) {
	if errors.Is(err, chain.ErrReverted) {
		o.fail(gen, KindReverted, err)
		return
	}
	// Timeout or any other failure of the wait itself: the outcome is
	// unknown either way.
	o.fail(gen, KindAmbiguous, err)
}

func (o *Orchestrator) fail(gen uint64, kind ErrorKind, err error) {
	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return
	}
	o.session.State = StateFailed
	o.session.ErrorKind = kind
	o.session.ErrorMessage = err.Error()
	snapshot := o.session
	done := o.done
	o.mu.Unlock()

	o.notify(snapshot)
	close(done)

	if kind == KindUserRejected || kind == KindSubmissionFailed {
		time.AfterFunc(o.opts.Cooldown, func() {
			o.mu.Lock()
			if o.gen == gen && o.session.State == StateFailed {
				o.session = Session{State: StateIdle}
			}
			o.mu.Unlock()
		})
	}
}

func (o *Orchestrator) notify(s Session) {
	if o.opts.Observer != nil {
		o.opts.Observer(s)
	}
}
