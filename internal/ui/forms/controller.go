package forms

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

// GenericFailure is shown when a failed submission carries no reason.
const GenericFailure = "Unknown error occurred"

var (
	// ErrApplicationsClosed guards submissions while the window is closed.
	ErrApplicationsClosed = errors.New("forms: applications are closed")
	// ErrSubmissionInFlight rejects a second submit while one is loading.
	ErrSubmissionInFlight = errors.New("forms: submission already in flight")
	// ErrNotEditable rejects edits and submits while the confirmation is shown.
	ErrNotEditable = errors.New("forms: confirmation shown, use submit another")
)

// Submitter sends an application to the backend.
type Submitter interface {
	SubmitApplication(ctx context.Context, form model.ApplicationFormData, idempotencyKey string) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, form model.ApplicationFormData, idempotencyKey string) error

// SubmitApplication calls f.
func (f SubmitterFunc) SubmitApplication(ctx context.Context, form model.ApplicationFormData, idempotencyKey string) error {
	return f(ctx, form, idempotencyKey)
}

// Controller owns the field values and submission status of one
// application form. It is safe for concurrent use.
//
//	idle ──submit──▶ loading ──2xx──▶ success ──submit another──▶ idle
//	                    │
//	                    └──failure──▶ error ──submit──▶ loading
type Controller struct {
	mu      sync.Mutex
	fields  model.ApplicationFormData
	status  model.SubmissionStatus
	message string
	missing []string

	// The key of the last attempt is reused when the user resubmits the
	// same values after a failure.
	attemptKey    string
	attemptFields model.ApplicationFormData
	newKey        func() string
}

// NewController returns an idle controller with empty fields.
func NewController() *Controller {
	return &Controller{
		status: model.StatusIdle,
		newKey: uuid.NewString,
	}
}

func (c *Controller) editable() bool {
	return c.status == model.StatusIdle || c.status == model.StatusError
}

// Set edits a single field. Edits are ignored while a submission is in
// flight or the confirmation is shown; unknown names are ignored too.
func (c *Controller) Set(name, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editable() {
		return false
	}
	return c.fields.Set(name, value)
}

// SetFields replaces every field at once, as a full form post does.
func (c *Controller) SetFields(fields model.ApplicationFormData) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editable() {
		return false
	}
	c.fields = fields
	return true
}

// Submit sends the current fields through submitter. open reports whether the
// application window is open; when it is not the call is a no-op.
//
// On success the fields are cleared and the status becomes success. On
// failure the fields are kept, the status becomes error and the returned
// error carries the reason.
func (c *Controller) Submit(ctx context.Context, open bool, submitter Submitter) error {
	if !open {
		return ErrApplicationsClosed
	}
	fields, key, err := c.begin()
	if err != nil {
		return err
	}
	submitErr := submitter.SubmitApplication(ctx, fields, key)
	c.complete(submitErr)
	return submitErr
}

func (c *Controller) begin() (model.ApplicationFormData, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case model.StatusLoading:
		return model.ApplicationFormData{}, "", ErrSubmissionInFlight
	case model.StatusSuccess:
		return model.ApplicationFormData{}, "", ErrNotEditable
	}
	if err := Validate(c.fields); err != nil {
		c.missing = err.(*ValidationError).Missing
		return model.ApplicationFormData{}, "", err
	}

	if c.status != model.StatusError || c.attemptKey == "" || c.attemptFields != c.fields {
		c.attemptKey = c.newKey()
		c.attemptFields = c.fields
	}
	c.status = model.StatusLoading
	c.message = ""
	c.missing = nil
	return c.fields, c.attemptKey, nil
}

func (c *Controller) complete(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.status = model.StatusSuccess
		c.fields = model.ApplicationFormData{}
		c.attemptKey = ""
		c.attemptFields = model.ApplicationFormData{}
		return
	}
	c.status = model.StatusError
	c.message = strings.TrimSpace(err.Error())
	if c.message == "" {
		c.message = GenericFailure
	}
}

// SubmitAnother returns from the confirmation to an empty idle form. It
// reports false when the controller is not showing a confirmation.
func (c *Controller) SubmitAnother() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != model.StatusSuccess {
		return false
	}
	c.status = model.StatusIdle
	c.fields = model.ApplicationFormData{}
	c.message = ""
	c.missing = nil
	return true
}

// Status returns the current submission status.
func (c *Controller) Status() model.SubmissionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot returns a copy of the form for rendering.
func (c *Controller) Snapshot() model.SubmitFormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := model.SubmitFormState{
		Fields:       c.fields,
		Status:       c.status,
		ErrorMessage: c.message,
	}
	if len(c.missing) > 0 {
		state.Missing = make(map[string]bool, len(c.missing))
		for _, name := range c.missing {
			state.Missing[name] = true
		}
	}
	return state
}
