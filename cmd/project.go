package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"testagent/internal/adapters"
	"testagent/internal/formatting"
	"testagent/internal/wizard"
	"testagent/pkg/logging"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
)

// projectFlags are the editable fields accepted on the command line.
type projectFlags struct {
	name        string
	description string
	repository  string
	projectURL  string
	postman     string
	frd         []string
	userStories []string
	use         bool
	interactive bool
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Project name")
	cmd.Flags().StringVar(&f.description, "description", "", "Project description")
	cmd.Flags().StringVar(&f.repository, "repository", "", "Repository URL")
	cmd.Flags().StringVar(&f.projectURL, "project-url", "", "URL of the application under test")
	cmd.Flags().StringVar(&f.postman, "postman", "", "Postman collection file (or '-' for stdin)")
	cmd.Flags().StringArrayVar(&f.frd, "frd", nil, "Functional requirements document (repeatable)")
	cmd.Flags().StringArrayVar(&f.userStories, "user-story", nil, "User story (repeatable)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Fill in the project with the step-by-step wizard")
}

// apply copies the flags that were set onto in.
func (f *projectFlags) apply(cmd *cobra.Command, in *adapters.ProjectInput) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		in.Name = f.name
	}
	if changed("description") {
		in.Description = f.description
	}
	if changed("repository") {
		in.Repository = f.repository
	}
	if changed("project-url") {
		in.ProjectURL = f.projectURL
	}
	if changed("frd") {
		in.FRDDocuments = f.frd
	}
	if changed("user-story") {
		in.UserStories = f.userStories
	}
	if changed("postman") {
		collection, err := readPostman(cmd.InOrStdin(), f.postman)
		if err != nil {
			return err
		}
		in.PostmanCollection = collection
	}
	return nil
}

func readPostman(stdin io.Reader, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read Postman collection: %w", err)
	}
	return string(data), nil
}

func newProjectCmd() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "proj"},
		Short:   "Manage testing projects",
		Long: `Create, edit and delete projects and choose the current project.

Every testing command runs against the current project unless --project
is given.`,
	}

	projectCmd.AddCommand(
		newProjectListCmd(),
		newProjectGetCmd(),
		newProjectCreateCmd(),
		newProjectEditCmd(),
		newProjectDeleteCmd(),
		newProjectUseCmd(),
		newProjectCurrentCmd(),
	)
	return projectCmd
}

func newProjectListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			userID := ""
			if !all {
				if u := app.session.User(); u != nil {
					userID = u.ID
				}
			}
			projects, err := app.api.Projects.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.ProjectsView{Projects: projects, Current: app.session.Project().Key()})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every project visible to the token, not only yours")
	return cmd
}

func newProjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			p, err := app.api.Projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.ProjectDetail(*p, p.Key() == app.session.Project().Key()))
		},
	}
}

func newProjectCreateCmd() *cobra.Command {
	flags := &projectFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Long: `Create a project from flags, or interactively with --interactive (the
default when no --name is given on a terminal).

The wizard walks Basics, Sources, Documents and Review. At any prompt:
  :back   return to the previous step
  :skip   skip an optional step
  :quit   leave the wizard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			w := wizard.New()
			if u := app.session.User(); u != nil {
				w.Update(func(in *adapters.ProjectInput) { in.UserID = u.ID })
			}
			in, ok, err := app.collectProject(cmd, w, flags)
			if err != nil || !ok {
				return err
			}

			s := app.startSpinner("Creating project...")
			p, err := app.api.Projects.Create(cmd.Context(), in)
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			logging.Info("Project", "Created project %s", p.Key())

			if flags.use {
				if err := app.session.SetProject(p); err != nil {
					return err
				}
			}
			return app.printer.Print(formatting.ProjectDetail(*p, flags.use))
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.use, "use", false, "Make the new project the current project")
	return cmd
}

func newProjectEditCmd() *cobra.Command {
	flags := &projectFlags{}
	cmd := &cobra.Command{
		Use:   "edit [project-id]",
		Short: "Edit a project (the current one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			if id, err = app.projectID(id); err != nil {
				return err
			}
			existing, err := app.api.Projects.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			w := wizard.NewEdit(*existing)
			in, ok, err := app.collectProject(cmd, w, flags)
			if err != nil || !ok {
				return err
			}
			if !w.Dirty() {
				app.printer.Message("No changes")
				return nil
			}

			p, err := app.api.Projects.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			current := p.Key() == app.session.Project().Key()
			if current {
				if err := app.session.SetProject(p); err != nil {
					return err
				}
			}
			return app.printer.Print(formatting.ProjectDetail(*p, current))
		},
	}
	flags.register(cmd)
	return cmd
}

// collectProject fills w from flags and, when requested or when nothing
// was given on a terminal, from the interactive wizard. ok is false when
// the user left the wizard.
func (a *application) collectProject(cmd *cobra.Command, w *wizard.ProjectWizard, flags *projectFlags) (adapters.ProjectInput, bool, error) {
	var applyErr error
	w.Update(func(in *adapters.ProjectInput) { applyErr = flags.apply(cmd, in) })
	if applyErr != nil {
		return adapters.ProjectInput{}, false, applyErr
	}

	given := anyChanged(cmd, "name", "description", "repository", "project-url", "postman", "frd", "user-story")
	interactive := flags.interactive || (!given && isInteractive(a.in))
	if !interactive {
		in, err := w.Complete()
		return in, err == nil, err
	}

	p, err := newPrompter(a.in, a.errOut, a.errOut)
	if err != nil {
		return adapters.ProjectInput{}, false, err
	}
	defer p.Close()

	confirm := func() bool {
		answer, err := p.Ask("Discard your changes? (y/N)", "")
		return err == nil && strings.EqualFold(strings.TrimSpace(answer), "y")
	}
	return runWizard(w, p, confirm, a.errOut)
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// asker reads one answer for a labeled field.
type asker interface {
	Ask(label, def string) (string, error)
}

var (
	errWizardBack  = errors.New("back")
	errWizardSkip  = errors.New("skip")
	errWizardQuit  = errors.New("quit")
	errWizardRetry = errors.New("retry")
)

// askField wraps Ask and turns the :back, :skip and :quit commands into
// sentinel errors. A closed input is returned as errAborted.
func askField(ask asker, label, def string) (string, error) {
	answer, err := ask.Ask(label, def)
	if err != nil {
		return "", err
	}
	switch strings.TrimSpace(answer) {
	case ":back":
		return "", errWizardBack
	case ":skip":
		return "", errWizardSkip
	case ":quit":
		return "", errWizardQuit
	}
	return answer, nil
}

// runWizard drives w to completion with answers from ask. It returns ok
// false when the user quit and confirmed discarding the form, or when the
// input was closed (Ctrl+D or the end of piped answers).
func runWizard(w *wizard.ProjectWizard, ask asker, confirm func() bool, out io.Writer) (adapters.ProjectInput, bool, error) {
	verb := "Create"
	if w.Editing() {
		verb = "Save"
	}

	for {
		fmt.Fprintf(out, "\n[%d/4] %s\n", int(w.Step())+1, w.Step())

		err := askStep(w, ask, verb, out)
		switch {
		case errors.Is(err, errWizardRetry):
			continue
		case errors.Is(err, errWizardBack):
			w.Back()
			continue
		case errors.Is(err, errWizardSkip):
			if err := w.Skip(); err != nil {
				fmt.Fprintf(out, "Cannot skip: %v\n", err)
			}
			continue
		case errors.Is(err, errAborted):
			if w.Dirty() {
				fmt.Fprintln(out, "Input closed, changes discarded.")
			}
			return adapters.ProjectInput{}, false, nil
		case errors.Is(err, errWizardQuit):
			if w.Close(confirm) {
				return adapters.ProjectInput{}, false, nil
			}
			continue
		case err != nil:
			return adapters.ProjectInput{}, false, err
		}

		if w.Step() == wizard.StepReview {
			in, err := w.Complete()
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			return in, true, nil
		}
		if err := w.Next(); err != nil {
			fmt.Fprintf(out, "%v\n", err)
		}
	}
}

func askStep(w *wizard.ProjectWizard, ask asker, verb string, out io.Writer) error {
	in := w.Input()
	switch w.Step() {
	case wizard.StepBasics:
		name, err := askField(ask, "Name", in.Name)
		if err != nil {
			return err
		}
		description, err := askField(ask, "Description", in.Description)
		if err != nil {
			return err
		}
		w.Update(func(in *adapters.ProjectInput) {
			in.Name, in.Description = name, description
		})

	case wizard.StepSources:
		repo, err := askField(ask, "Repository URL", in.Repository)
		if err != nil {
			return err
		}
		projectURL, err := askField(ask, "Application URL", in.ProjectURL)
		if err != nil {
			return err
		}
		postman, err := askField(ask, "Postman collection file", "")
		if err != nil {
			return err
		}
		var collection string
		if path := strings.TrimSpace(postman); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(out, "failed to read Postman collection: %v\n", err)
				return errWizardRetry
			}
			collection = string(data)
		}
		w.Update(func(in *adapters.ProjectInput) {
			in.Repository, in.ProjectURL = repo, projectURL
			if collection != "" {
				in.PostmanCollection = collection
			}
		})

	case wizard.StepDocuments:
		frd, err := askField(ask, "FRD documents (comma separated)", strings.Join(in.FRDDocuments, ", "))
		if err != nil {
			return err
		}
		stories, err := askField(ask, "User stories (separated by ';')", strings.Join(in.UserStories, "; "))
		if err != nil {
			return err
		}
		w.Update(func(in *adapters.ProjectInput) {
			in.FRDDocuments = splitList(frd, ",")
			in.UserStories = splitList(stories, ";")
		})

	case wizard.StepReview:
		fmt.Fprintln(out, reviewText(in))
		answer, err := askField(ask, verb+" this project? (y/N)", "")
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return errWizardQuit
		}
	}
	return nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func reviewText(in adapters.ProjectInput) string {
	postman := "-"
	if in.PostmanCollection != "" {
		postman = fmt.Sprintf("%d bytes", len(in.PostmanCollection))
	}
	lines := []string{
		"  Name:         " + in.Name,
		"  Description:  " + in.Description,
		"  Repository:   " + formatting.OrDash(in.Repository),
		"  App URL:      " + formatting.OrDash(in.ProjectURL),
		"  Postman:      " + postman,
		"  FRDs:         " + formatting.OrDash(strings.Join(in.FRDDocuments, ", ")),
		"  User stories: " + formatting.OrDash(strings.Join(in.UserStories, "; ")),
	}
	return strings.Join(lines, "\n")
}

func newProjectDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			id := args[0]
			if !force && !confirmAction(app.in, app.errOut, fmt.Sprintf("Delete project %s?", id)) {
				app.info("Aborted")
				return nil
			}
			if err := app.api.Projects.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if app.session.Project().Key() == id {
				if err := app.session.SetProject(nil); err != nil {
					return err
				}
			}
			app.printer.Message("Deleted project %s", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")
	return cmd
}

func newProjectUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <project-id>",
		Short: "Make a project the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			p, err := app.api.Projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.session.SetProject(p); err != nil {
				return err
			}
			if app.printer.Structured() {
				return app.printer.PrintValue(p)
			}
			app.printer.Message("Now using project %s (%s)", p.Name, p.Key())
			return nil
		},
	}
}

func newProjectCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			p := app.session.Project()
			if p == nil {
				return usageErrorf("no project selected: run 'testagent project use <id>'")
			}
			return app.printer.Print(formatting.ProjectDetail(*p, true))
		},
	}
}

// projectFor returns the stored project when it matches id, or a stand-in
// named after the id.
func (a *application) projectFor(id string) *models.Project {
	if p := a.session.Project(); p != nil && p.Key() == id {
		return p
	}
	return &models.Project{ID: id, ProjectID: id, Name: id}
}
