package wizard

import (
	"errors"
	"testing"

	"testagent/internal/adapters"
	"testagent/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizard_NextRequiresBasics(t *testing.T) {
	w := New()

	err := w.Next()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepBasics, verr.Step)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, StepBasics, w.Step())

	w.Update(func(in *adapters.ProjectInput) { in.Name = "Shop" })
	err = w.Next()
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "description", verr.Field)

	w.Update(func(in *adapters.ProjectInput) { in.Description = "Online shop" })
	require.NoError(t, w.Next())
	assert.Equal(t, StepSources, w.Step())
}

func TestWizard_SourcesValidatesURLs(t *testing.T) {
	w := New()
	w.Update(func(in *adapters.ProjectInput) {
		in.Name = "Shop"
		in.Description = "Online shop"
		in.Repository = "github.com/acme/shop"
	})
	require.NoError(t, w.Next())

	err := w.Next()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "repository", verr.Field)
	assert.Contains(t, err.Error(), "Sources")

	w.Update(func(in *adapters.ProjectInput) { in.Repository = "https://github.com/acme/shop" })
	require.NoError(t, w.Next())
	assert.Equal(t, StepDocuments, w.Step())
}

func TestWizard_SkipOnlyOptionalSteps(t *testing.T) {
	w := New()
	assert.ErrorIs(t, w.Skip(), ErrNotSkippable)

	w.Update(func(in *adapters.ProjectInput) {
		in.Name = "Shop"
		in.Description = "Online shop"
	})
	require.NoError(t, w.Next())
	require.NoError(t, w.Skip())
	require.NoError(t, w.Skip())
	assert.Equal(t, StepReview, w.Step())
	assert.ErrorIs(t, w.Skip(), ErrNotSkippable)

	require.NoError(t, w.Next())
	assert.Equal(t, StepReview, w.Step())
}

func TestWizard_Back(t *testing.T) {
	w := New()
	assert.False(t, w.Back())

	w.Update(func(in *adapters.ProjectInput) {
		in.Name = "Shop"
		in.Description = "Online shop"
	})
	require.NoError(t, w.Next())
	assert.True(t, w.Back())
	assert.Equal(t, StepBasics, w.Step())
}

func TestWizard_CloseConfirmsOnlyWhenDirty(t *testing.T) {
	w := New()
	asked := false
	assert.True(t, w.Close(func() bool { asked = true; return false }))
	assert.False(t, asked)

	w.Update(func(in *adapters.ProjectInput) { in.Name = "Shop" })
	assert.False(t, w.Close(func() bool { asked = true; return false }))
	assert.True(t, asked)
	assert.True(t, w.Close(func() bool { return true }))
	assert.False(t, w.Close(nil))
}

func TestWizard_EditStartsClean(t *testing.T) {
	w := NewEdit(models.Project{ID: "p-1", Name: "Shop", Description: "Online shop", UserStories: []string{}})

	assert.True(t, w.Editing())
	assert.False(t, w.Dirty())
	assert.Equal(t, "Shop", w.Input().Name)

	w.Update(func(in *adapters.ProjectInput) { in.UserStories = append(in.UserStories, "As a buyer...") })
	assert.True(t, w.Dirty())
}

func TestWizard_Complete(t *testing.T) {
	w := New()
	w.Update(func(in *adapters.ProjectInput) {
		in.Name = "Shop"
		in.Description = "Online shop"
		in.FRDDocuments = []string{"frd.pdf", " "}
	})

	_, err := w.Complete()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepDocuments, verr.Step)
	assert.Equal(t, StepDocuments, w.Step())

	w.Update(func(in *adapters.ProjectInput) { in.FRDDocuments = []string{"frd.pdf"} })
	in, err := w.Complete()
	require.NoError(t, err)
	assert.Equal(t, "Shop", in.Name)
	assert.Equal(t, []string{"frd.pdf"}, in.FRDDocuments)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "Review", StepReview.String())
	assert.Equal(t, "Step(9)", Step(9).String())
}
