package forms

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

// ValidationError lists required fields left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Validate checks required-field presence only; everything else is left to
// the backend.
func Validate(form model.ApplicationFormData) error {
	if missing := form.Missing(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// FromValues reads the seven application fields from posted form values.
// Values are kept exactly as typed; whitespace only matters to Validate.
func FromValues(values url.Values) model.ApplicationFormData {
	var form model.ApplicationFormData
	for _, name := range model.FieldNames {
		form.Set(name, values.Get(name))
	}
	return form
}
