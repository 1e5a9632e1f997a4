package schedule

import (
	"context"
	"errors"
	"sync"
)

// Phase is the dialog state.
type Phase string

const (
	PhaseClosed           Phase = "closed"
	PhaseCreating         Phase = "creating"
	PhaseEditing          Phase = "editing"
	PhaseConfirmingDelete Phase = "confirmingDelete"
)

// DialogView is the render snapshot of a dialog.
type DialogView[K comparable, V any] struct {
	Phase       Phase             `json:"phase"`
	Key         K                 `json:"key"`
	Form        V                 `json:"form"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Pending     bool              `json:"pending"`
}

// Dialog is the create/edit/delete-confirm state machine behind every
// schedule form. The lock is never held while a request is in flight;
// pending rejects a second submit instead.
type Dialog[K comparable, V any] struct {
	mu          sync.Mutex
	phase       Phase
	key         K
	form        V
	errMsg      string
	fieldErrors map[string]string
	pending     bool
	// phase to return to when a delete prompt is declined
	returnTo Phase
}

func NewDialog[K comparable, V any]() *Dialog[K, V] {
	return &Dialog[K, V]{phase: PhaseClosed}
}

// View returns a copy of the current state.
func (d *Dialog[K, V]) View() DialogView[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *Dialog[K, V]) viewLocked() DialogView[K, V] {
	v := DialogView[K, V]{
		Phase:   d.phase,
		Key:     d.key,
		Form:    d.form,
		Error:   d.errMsg,
		Pending: d.pending,
	}
	if len(d.fieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(d.fieldErrors))
		for k, msg := range d.fieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	return v
}

// OpenBlank starts a create flow for key seeded with form.
func (d *Dialog[K, V]) OpenBlank(key K, form V) (DialogView[K, V], error) {
	return d.open(PhaseCreating, key, form)
}

// OpenExisting starts an edit flow for key with the loaded record.
func (d *Dialog[K, V]) OpenExisting(key K, record V) (DialogView[K, V], error) {
	return d.open(PhaseEditing, key, record)
}

func (d *Dialog[K, V]) open(phase Phase, key K, form V) (DialogView[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return d.viewLocked(), ErrPending
	}
	d.phase = phase
	d.key = key
	d.form = form
	d.clearErrorsLocked()
	return d.viewLocked(), nil
}

// Cancel discards the form.
func (d *Dialog[K, V]) Cancel() (DialogView[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return d.viewLocked(), ErrPending
	}
	d.resetLocked()
	return d.viewLocked(), nil
}

// Submit validates form and, when valid, runs save exactly once. On success
// the dialog closes; on failure it stays open with the form and error kept.
// creating tells save whether to create or update.
func (d *Dialog[K, V]) Submit(ctx context.Context, form V, validate func(V) error, save func(ctx context.Context, creating bool, key K, form V) error) (DialogView[K, V], error) {
	d.mu.Lock()
	if d.phase != PhaseCreating && d.phase != PhaseEditing {
		defer d.mu.Unlock()
		return d.viewLocked(), ErrNotOpen
	}
	if d.pending {
		defer d.mu.Unlock()
		return d.viewLocked(), ErrPending
	}
	d.form = form
	d.clearErrorsLocked()
	if validate != nil {
		if err := validate(form); err != nil {
			d.recordErrorLocked(err)
			defer d.mu.Unlock()
			return d.viewLocked(), err
		}
	}
	d.pending = true
	creating := d.phase == PhaseCreating
	key := d.key
	d.mu.Unlock()

	err := save(ctx, creating, key, form)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	if err != nil {
		d.recordErrorLocked(err)
		return d.viewLocked(), err
	}
	d.resetLocked()
	return d.viewLocked(), nil
}

// RequestDelete moves an open edit form to the confirmation prompt.
func (d *Dialog[K, V]) RequestDelete() (DialogView[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return d.viewLocked(), ErrPending
	}
	if d.phase != PhaseEditing {
		return d.viewLocked(), ErrBadState
	}
	d.phase = PhaseConfirmingDelete
	d.returnTo = PhaseEditing
	d.clearErrorsLocked()
	return d.viewLocked(), nil
}

// RequestDeleteFor opens the confirmation prompt straight from a closed
// dialog, as the delete button on a board card does.
func (d *Dialog[K, V]) RequestDeleteFor(key K, record V) (DialogView[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return d.viewLocked(), ErrPending
	}
	if d.phase != PhaseClosed {
		return d.viewLocked(), ErrBadState
	}
	d.phase = PhaseConfirmingDelete
	d.returnTo = PhaseClosed
	d.key = key
	d.form = record
	d.clearErrorsLocked()
	return d.viewLocked(), nil
}

// DeclineDelete returns to where the prompt was opened from.
func (d *Dialog[K, V]) DeclineDelete() (DialogView[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseConfirmingDelete {
		return d.viewLocked(), ErrBadState
	}
	if d.pending {
		return d.viewLocked(), ErrPending
	}
	if d.returnTo == PhaseEditing {
		d.phase = PhaseEditing
		d.clearErrorsLocked()
	} else {
		d.resetLocked()
	}
	return d.viewLocked(), nil
}

// ConfirmDelete runs del once. Success closes the dialog; failure keeps the
// prompt open with the error.
func (d *Dialog[K, V]) ConfirmDelete(ctx context.Context, del func(ctx context.Context, key K) error) (DialogView[K, V], error) {
	d.mu.Lock()
	if d.phase != PhaseConfirmingDelete {
		defer d.mu.Unlock()
		return d.viewLocked(), ErrBadState
	}
	if d.pending {
		defer d.mu.Unlock()
		return d.viewLocked(), ErrPending
	}
	d.pending = true
	d.clearErrorsLocked()
	key := d.key
	d.mu.Unlock()

	err := del(ctx, key)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	if err != nil {
		d.recordErrorLocked(err)
		return d.viewLocked(), err
	}
	d.resetLocked()
	return d.viewLocked(), nil
}

func (d *Dialog[K, V]) resetLocked() {
	var zeroK K
	var zeroV V
	d.phase = PhaseClosed
	d.key = zeroK
	d.form = zeroV
	d.returnTo = PhaseClosed
	d.clearErrorsLocked()
}

func (d *Dialog[K, V]) clearErrorsLocked() {
	d.errMsg = ""
	d.fieldErrors = nil
}

func (d *Dialog[K, V]) recordErrorLocked(err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		d.fieldErrors = verr.Fields
		d.errMsg = "please fix the highlighted fields"
		return
	}
	d.errMsg = err.Error()
}
