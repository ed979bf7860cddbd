package forms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	calls []model.ApplicationFormData
	keys  []string
	err   error
	// block, when set, is waited on before returning.
	block chan struct{}
	// started is closed once the first call begins.
	started chan struct{}
}

func (r *recordingSubmitter) SubmitApplication(ctx context.Context, form model.ApplicationFormData, key string) error {
	r.mu.Lock()
	r.calls = append(r.calls, form)
	r.keys = append(r.keys, key)
	if r.started != nil && len(r.calls) == 1 {
		close(r.started)
	}
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return r.err
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func steve() model.ApplicationFormData {
	return model.ApplicationFormData{
		IGN:        "Steve",
		Discord:    "steve#0001",
		Age:        "18",
		Timezone:   "UTC+7",
		Role:       "helper",
		Experience: "none",
		Reason:     "fun",
	}
}

func TestControllerSubmitSuccessClearsFields(t *testing.T) {
	c := NewController()
	require.True(t, c.SetFields(steve()))

	sub := &recordingSubmitter{}
	require.NoError(t, c.Submit(context.Background(), true, sub))

	require.Equal(t, 1, sub.count())
	assert.Equal(t, steve(), sub.calls[0])
	assert.NotEmpty(t, sub.keys[0])

	snap := c.Snapshot()
	assert.Equal(t, model.StatusSuccess, snap.Status)
	assert.True(t, snap.Fields.IsEmpty())
	assert.Empty(t, snap.ErrorMessage)
}

func TestControllerSubmitFailurePreservesFields(t *testing.T) {
	c := NewController()
	c.SetFields(steve())

	sub := &recordingSubmitter{err: errors.New("Server error: 500")}
	err := c.Submit(context.Background(), true, sub)
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, model.StatusError, snap.Status)
	assert.Equal(t, steve(), snap.Fields)
	assert.Equal(t, "Server error: 500", snap.ErrorMessage)
}

func TestControllerEmptyFailureUsesGenericMessage(t *testing.T) {
	c := NewController()
	c.SetFields(steve())

	err := c.Submit(context.Background(), true, &recordingSubmitter{err: errors.New("")})
	require.Error(t, err)
	assert.Equal(t, GenericFailure, c.Snapshot().ErrorMessage)
}

func TestControllerClosedIsNoop(t *testing.T) {
	c := NewController()
	c.SetFields(steve())

	sub := &recordingSubmitter{}
	err := c.Submit(context.Background(), false, sub)
	require.ErrorIs(t, err, ErrApplicationsClosed)
	assert.Zero(t, sub.count())
	assert.Equal(t, model.StatusIdle, c.Status())
	assert.Equal(t, steve(), c.Snapshot().Fields)
}

func TestControllerMissingFieldsBlockSubmission(t *testing.T) {
	c := NewController()
	form := steve()
	form.Reason = "   "
	form.Discord = ""
	c.SetFields(form)

	sub := &recordingSubmitter{}
	err := c.Submit(context.Background(), true, sub)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{model.FieldDiscord, model.FieldReason}, verr.Missing)
	assert.Zero(t, sub.count())

	snap := c.Snapshot()
	assert.Equal(t, model.StatusIdle, snap.Status)
	assert.True(t, snap.Missing[model.FieldDiscord])
	assert.True(t, snap.Missing[model.FieldReason])
	assert.False(t, snap.Missing[model.FieldIGN])
}

func TestControllerSingleSubmissionInFlight(t *testing.T) {
	c := NewController()
	c.SetFields(steve())

	sub := &recordingSubmitter{block: make(chan struct{}), started: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), true, sub) }()
	<-sub.started

	assert.Equal(t, model.StatusLoading, c.Status())
	assert.True(t, c.Snapshot().Submitting())
	require.ErrorIs(t, c.Submit(context.Background(), true, sub), ErrSubmissionInFlight)
	assert.False(t, c.Set(model.FieldIGN, "Alex"), "edits are ignored while loading")

	close(sub.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.count())
	assert.Equal(t, model.StatusSuccess, c.Status())
}

func TestControllerSuccessOnlyAllowsSubmitAnother(t *testing.T) {
	c := NewController()
	c.SetFields(steve())
	require.NoError(t, c.Submit(context.Background(), true, &recordingSubmitter{}))

	assert.False(t, c.Set(model.FieldIGN, "Alex"))
	require.ErrorIs(t, c.Submit(context.Background(), true, &recordingSubmitter{}), ErrNotEditable)

	require.True(t, c.SubmitAnother())
	snap := c.Snapshot()
	assert.Equal(t, model.StatusIdle, snap.Status)
	assert.True(t, snap.Fields.IsEmpty())

	assert.False(t, c.SubmitAnother(), "submit another is only valid from success")
}

func TestControllerRetryAfterErrorReusesKeyForSameValues(t *testing.T) {
	c := NewController()
	c.SetFields(steve())

	sub := &recordingSubmitter{err: fmt.Errorf("connection refused")}
	require.Error(t, c.Submit(context.Background(), true, sub))
	require.Error(t, c.Submit(context.Background(), true, sub))
	require.Len(t, sub.keys, 2)
	assert.Equal(t, sub.keys[0], sub.keys[1])

	require.True(t, c.Set(model.FieldReason, "changed my mind"))
	sub.err = nil
	require.NoError(t, c.Submit(context.Background(), true, sub))
	require.Len(t, sub.keys, 3)
	assert.NotEqual(t, sub.keys[1], sub.keys[2])
}

func TestControllerFreshKeyAfterSuccess(t *testing.T) {
	c := NewController()
	sub := &recordingSubmitter{}

	c.SetFields(steve())
	require.NoError(t, c.Submit(context.Background(), true, sub))
	c.SubmitAnother()
	c.SetFields(steve())
	require.NoError(t, c.Submit(context.Background(), true, sub))

	require.Len(t, sub.keys, 2)
	assert.NotEqual(t, sub.keys[0], sub.keys[1])
}

func TestControllerSetIgnoresUnknownField(t *testing.T) {
	c := NewController()
	assert.False(t, c.Set("password", "hunter2"))
	assert.True(t, c.Set(model.FieldAge, "21"))
	assert.Equal(t, "21", c.Snapshot().Fields.Age)
}

func TestFromValuesKeepsRawValuesAndIgnoresExtras(t *testing.T) {
	values := url.Values{
		"ign":     {"  Steve "},
		"discord": {"steve#0001"},
		"age":     {"   "},
		"role":    {"builder"},
		"extra":   {"ignored"},
	}
	form := FromValues(values)
	assert.Equal(t, "  Steve ", form.IGN)
	assert.Equal(t, "   ", form.Age)
	assert.Equal(t, "builder", form.Role)
	assert.Empty(t, form.Reason)

	var verr *ValidationError
	require.ErrorAs(t, Validate(form), &verr)
	assert.Contains(t, verr.Error(), "age")
}
