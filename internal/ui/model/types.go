package model

import (
	"fmt"
	"strings"
)

// Stage names one of the three points in the recruitment timeline.
type Stage string

const (
	StageStart  Stage = "start"
	StageReview Stage = "review"
	StageEnd    Stage = "end"
)

// Stages lists the timeline stages in display order.
var Stages = []Stage{StageStart, StageReview, StageEnd}

// Valid reports whether the stage is one of the known timeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageStart, StageReview, StageEnd:
		return true
	}
	return false
}

// RoleStatus describes whether a staff role is accepting applicants.
type RoleStatus string

const (
	RoleOpen    RoleStatus = "OPEN"
	RoleClosed  RoleStatus = "CLOSED"
	RoleLimited RoleStatus = "LIMITED"
)

// Valid reports whether the status is one of the known role states.
func (s RoleStatus) Valid() bool {
	switch s {
	case RoleOpen, RoleClosed, RoleLimited:
		return true
	}
	return false
}

// Dates carries the display-only labels for each timeline stage.
type Dates struct {
	Start  string `json:"start" yaml:"start"`
	Review string `json:"review" yaml:"review"`
	End    string `json:"end" yaml:"end"`
}

// For returns the date label attached to the given stage.
func (d Dates) For(stage Stage) string {
	switch stage {
	case StageStart:
		return d.Start
	case StageReview:
		return d.Review
	case StageEnd:
		return d.End
	}
	return ""
}

// Roles maps each staff role to its acceptance status.
type Roles struct {
	Helper    RoleStatus `json:"helper" yaml:"helper"`
	Builder   RoleStatus `json:"builder" yaml:"builder"`
	Developer RoleStatus `json:"developer" yaml:"developer"`
}

// ApplicationConfig is the backend-provided description of the current
// recruitment window. It is rendered verbatim; the client never derives
// CurrentStage from Dates.
type ApplicationConfig struct {
	IsOpen       bool   `json:"isOpen" yaml:"isOpen"`
	Season       string `json:"season" yaml:"season"`
	Dates        Dates  `json:"dates" yaml:"dates"`
	CurrentStage Stage  `json:"currentStage" yaml:"currentStage"`
	Roles        Roles  `json:"roles" yaml:"roles"`
}

// Validate reports the first enum value the page would not know how to render.
func (c ApplicationConfig) Validate() error {
	if !c.CurrentStage.Valid() {
		return fmt.Errorf("unknown currentStage %q", c.CurrentStage)
	}
	roles := []struct {
		name   string
		status RoleStatus
	}{
		{"helper", c.Roles.Helper},
		{"builder", c.Roles.Builder},
		{"developer", c.Roles.Developer},
	}
	for _, role := range roles {
		if !role.status.Valid() {
			return fmt.Errorf("unknown status %q for role %s", role.status, role.name)
		}
	}
	return nil
}

// Field names accepted by the application form and the backend payload.
const (
	FieldIGN        = "ign"
	FieldDiscord    = "discord"
	FieldAge        = "age"
	FieldTimezone   = "timezone"
	FieldRole       = "role"
	FieldExperience = "experience"
	FieldReason     = "reason"
)

// FieldNames lists every application field in form order.
var FieldNames = []string{
	FieldIGN,
	FieldDiscord,
	FieldAge,
	FieldTimezone,
	FieldRole,
	FieldExperience,
	FieldReason,
}

// ApplicationFormData holds the seven fields posted to /api/applications.
type ApplicationFormData struct {
	IGN        string `json:"ign"`
	Discord    string `json:"discord"`
	Age        string `json:"age"`
	Timezone   string `json:"timezone"`
	Role       string `json:"role"`
	Experience string `json:"experience"`
	Reason     string `json:"reason"`
}

func (f *ApplicationFormData) field(name string) *string {
	switch name {
	case FieldIGN:
		return &f.IGN
	case FieldDiscord:
		return &f.Discord
	case FieldAge:
		return &f.Age
	case FieldTimezone:
		return &f.Timezone
	case FieldRole:
		return &f.Role
	case FieldExperience:
		return &f.Experience
	case FieldReason:
		return &f.Reason
	}
	return nil
}

// Get returns the value of the named field, or "" for unknown names.
func (f ApplicationFormData) Get(name string) string {
	if p := f.field(name); p != nil {
		return *p
	}
	return ""
}

// Set assigns the named field. It reports false for unknown names.
func (f *ApplicationFormData) Set(name, value string) bool {
	p := f.field(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Missing lists the required fields that are empty after trimming.
func (f ApplicationFormData) Missing() []string {
	var missing []string
	for _, name := range FieldNames {
		if strings.TrimSpace(f.Get(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// IsEmpty reports whether every field is blank.
func (f ApplicationFormData) IsEmpty() bool {
	return f == ApplicationFormData{}
}

// SubmissionStatus is the lifecycle of a single application form.
type SubmissionStatus string

const (
	StatusIdle    SubmissionStatus = "idle"
	StatusLoading SubmissionStatus = "loading"
	StatusSuccess SubmissionStatus = "success"
	StatusError   SubmissionStatus = "error"
)

// SubmitFormState is the rendered snapshot of the application form.
type SubmitFormState struct {
	Fields       ApplicationFormData
	Status       SubmissionStatus
	ErrorMessage string
	Missing      map[string]bool
}

// Submitting reports whether a request is in flight.
func (s SubmitFormState) Submitting() bool {
	return s.Status == StatusLoading
}

// CreateApplicationResponse is returned by the backend when it accepts an application.
type CreateApplicationResponse struct {
	ID string `json:"id"`
}

// ErrorPayload is the JSON error envelope used by the backend.
type ErrorPayload struct {
	Message string `json:"message"`
}
