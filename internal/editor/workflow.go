package editor

import "context"

// Phase of a save attempt. Transitions are synchronous; presenting an Outcome
// to the user (error list, confirm dialog, navigation) is the caller's side
// effect, decoupled from the state machine itself.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBlocked
	PhaseConfirm
	PhaseCommitting
	PhaseSaved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBlocked:
		return "blocked"
	case PhaseConfirm:
		return "confirm"
	case PhaseCommitting:
		return "committing"
	case PhaseSaved:
		return "saved"
	}
	return "unknown"
}

// Outcome is what the caller presents after a transition.
type Outcome struct {
	Phase Phase
	// Errors carries the full validation message list when Phase is Blocked.
	Errors []string
	// StaleItems carries the invalid lines awaiting user confirmation when
	// Phase is Confirm.
	StaleItems []InvalidItem
	// Created is true after the first successful save of a new invoice; the
	// caller should rewrite the current location with the assigned id so later
	// saves target the same record.
	Created bool
	// Err is the persistence failure when a commit failed (Phase back to
	// Idle, draft still dirty).
	Err error
}

// ExitChoice is the user's answer to the leave-with-unsaved-changes prompt.
type ExitChoice int

const (
	ExitSave ExitChoice = iota
	ExitDiscard
	ExitCancel
)

// Workflow gates saves behind schema validation and the stale-item
// confirmation, then delegates the commit to the store.
type Workflow struct {
	store *Store
	phase Phase
	stale []InvalidItem
}

func NewWorkflow(s *Store) *Workflow { return &Workflow{store: s} }

func (w *Workflow) Phase() Phase { return w.phase }

// BeginSave starts a fresh save attempt: validate, then check for stale
// product references, then commit. A save already in flight is left alone.
func (w *Workflow) BeginSave(ctx context.Context) Outcome {
	if w.phase == PhaseCommitting || w.store.IsSaving() {
		return Outcome{Phase: PhaseCommitting}
	}
	w.stale = nil
	if errs := ValidateForm(w.store.Form()); len(errs) > 0 {
		w.phase = PhaseBlocked
		return Outcome{Phase: PhaseBlocked, Errors: errs}
	}
	if stale := w.store.InvalidItems(); len(stale) > 0 {
		w.phase = PhaseConfirm
		w.stale = stale
		return Outcome{Phase: PhaseConfirm, StaleItems: stale}
	}
	return w.commit(ctx)
}

// ConfirmPrune resolves the Confirm phase by removing the stale lines and
// retrying. The pruned draft is validated again before committing: stripping
// the last item must surface the at-least-one-item error, not slip through.
func (w *Workflow) ConfirmPrune(ctx context.Context) Outcome {
	if w.phase != PhaseConfirm {
		return Outcome{Phase: w.phase}
	}
	for _, inv := range w.stale {
		w.store.DeleteItem(inv.Item.ID)
	}
	w.stale = nil
	if errs := ValidateForm(w.store.Form()); len(errs) > 0 {
		w.phase = PhaseBlocked
		return Outcome{Phase: PhaseBlocked, Errors: errs}
	}
	return w.commit(ctx)
}

// CancelConfirm abandons the save attempt and leaves the draft untouched.
func (w *Workflow) CancelConfirm() Outcome {
	if w.phase == PhaseConfirm {
		w.phase = PhaseIdle
		w.stale = nil
	}
	return Outcome{Phase: w.phase}
}

func (w *Workflow) commit(ctx context.Context) Outcome {
	w.phase = PhaseCommitting
	wasNew := w.store.InvoiceID() == 0
	if err := w.store.SaveInvoice(ctx); err != nil {
		w.phase = PhaseIdle
		return Outcome{Phase: PhaseIdle, Err: err}
	}
	w.phase = PhaseSaved
	return Outcome{Phase: PhaseSaved, Created: wasNew}
}

// NeedsExitPrompt reports whether leaving the editor should interpose the
// save/discard/cancel choice.
func (w *Workflow) NeedsExitPrompt() bool { return w.store.HasUnsavedChanges() }

// ResolveExit applies the user's exit choice. leave is true when navigation
// may proceed: immediately on discard, after a save that ended in Saved, or
// when there was nothing unsaved to begin with.
func (w *Workflow) ResolveExit(ctx context.Context, choice ExitChoice) (leave bool, out Outcome) {
	if !w.store.HasUnsavedChanges() {
		return true, Outcome{Phase: w.phase}
	}
	switch choice {
	case ExitSave:
		out = w.BeginSave(ctx)
		return out.Phase == PhaseSaved, out
	case ExitDiscard:
		return true, Outcome{Phase: w.phase}
	default:
		return false, Outcome{Phase: w.phase}
	}
}
