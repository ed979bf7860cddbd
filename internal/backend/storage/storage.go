// Package storage persists staff applications received by the reference
// backend.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

// ErrNotFound indicates that the requested application does not exist.
var ErrNotFound = errors.New("storage: not found")

// Application is one stored staff application. The embedded form fields map
// to columns of the same lower-cased name.
type Application struct {
	ID             string    `json:"id" db:"id"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	SubmittedAt    time.Time `json:"submittedAt" db:"submitted_at"`
	model.ApplicationFormData
}

// Store defines persistence operations for applications.
//
// Create is idempotent on a non-empty IdempotencyKey: a second call with the
// same key stores nothing and returns the first record with created false.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, app Application) (stored Application, created bool, err error)
	Get(ctx context.Context, id string) (Application, error)
	List(ctx context.Context) ([]Application, error)
}
