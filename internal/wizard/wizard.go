// Package wizard holds the multi-step project form used by
// "testagent project create" and "testagent project edit".
package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"testagent/internal/adapters"
	"testagent/pkg/models"
)

// Step is a wizard page.
type Step int

const (
	StepBasics Step = iota
	StepSources
	StepDocuments
	StepReview
)

// String returns the page title.
func (s Step) String() string {
	switch s {
	case StepBasics:
		return "Basics"
	case StepSources:
		return "Sources"
	case StepDocuments:
		return "Documents"
	case StepReview:
		return "Review"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Optional reports whether the step may be skipped.
func (s Step) Optional() bool {
	return s == StepSources || s == StepDocuments
}

// ValidationError names the field that blocks leaving a step.
type ValidationError struct {
	Step    Step
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Step, e.Field, e.Message)
}

// ErrNotSkippable is returned when skipping a required step.
var ErrNotSkippable = errors.New("this step is required")

// ProjectWizard walks Basics -> Sources -> Documents -> Review.
type ProjectWizard struct {
	step    Step
	input   adapters.ProjectInput
	initial adapters.ProjectInput
	editing bool
}

// New returns a wizard for a new project.
func New() *ProjectWizard {
	return &ProjectWizard{}
}

// NewEdit returns a wizard pre-filled from p.
func NewEdit(p models.Project) *ProjectWizard {
	in := adapters.InputFromProject(p)
	return &ProjectWizard{input: in, initial: adapters.InputFromProject(p), editing: true}
}

// Step returns the current page.
func (w *ProjectWizard) Step() Step { return w.step }

// Editing reports whether the wizard edits an existing project.
func (w *ProjectWizard) Editing() bool { return w.editing }

// Input returns a copy of the collected values.
func (w *ProjectWizard) Input() adapters.ProjectInput {
	in := w.input
	in.FRDDocuments = append([]string(nil), w.input.FRDDocuments...)
	in.UserStories = append([]string(nil), w.input.UserStories...)
	return in
}

// Update changes the collected values.
func (w *ProjectWizard) Update(fn func(in *adapters.ProjectInput)) {
	fn(&w.input)
}

// Dirty reports whether anything changed since the wizard opened.
func (w *ProjectWizard) Dirty() bool {
	return !reflect.DeepEqual(normalize(w.input), normalize(w.initial))
}

// Next validates the current page and advances. On the review page it
// only validates.
func (w *ProjectWizard) Next() error {
	if err := w.validate(w.step); err != nil {
		return err
	}
	if w.step < StepReview {
		w.step++
	}
	return nil
}

// Back returns to the previous page. It reports false on the first page.
func (w *ProjectWizard) Back() bool {
	if w.step == StepBasics {
		return false
	}
	w.step--
	return true
}

// Skip advances past an optional page, discarding nothing.
func (w *ProjectWizard) Skip() error {
	if !w.step.Optional() {
		return ErrNotSkippable
	}
	w.step++
	return nil
}

// Close asks confirm when data was entered and reports whether the wizard
// may close. confirm is not called for an untouched form.
func (w *ProjectWizard) Close(confirm func() bool) bool {
	if !w.Dirty() {
		return true
	}
	return confirm != nil && confirm()
}

// Complete validates every page and returns the input to submit.
func (w *ProjectWizard) Complete() (adapters.ProjectInput, error) {
	for s := StepBasics; s <= StepReview; s++ {
		if err := w.validate(s); err != nil {
			w.step = s
			return adapters.ProjectInput{}, err
		}
	}
	return w.Input(), nil
}

func (w *ProjectWizard) validate(s Step) error {
	in := w.input
	switch s {
	case StepBasics:
		if strings.TrimSpace(in.Name) == "" {
			return &ValidationError{Step: s, Field: "name", Message: "is required"}
		}
		if strings.TrimSpace(in.Description) == "" {
			return &ValidationError{Step: s, Field: "description", Message: "is required"}
		}
	case StepSources:
		if err := checkURL(s, "repository", in.Repository); err != nil {
			return err
		}
		if err := checkURL(s, "project URL", in.ProjectURL); err != nil {
			return err
		}
	case StepDocuments:
		for i, doc := range in.FRDDocuments {
			if strings.TrimSpace(doc) == "" {
				return &ValidationError{Step: s, Field: fmt.Sprintf("FRD document %d", i+1), Message: "is empty"}
			}
		}
	}
	return nil
}

func checkURL(s Step, field, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Step: s, Field: field, Message: "must be an http(s) URL"}
	}
	return nil
}

func normalize(in adapters.ProjectInput) adapters.ProjectInput {
	if len(in.FRDDocuments) == 0 {
		in.FRDDocuments = nil
	}
	if len(in.UserStories) == 0 {
		in.UserStories = nil
	}
	return in
}
