package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/project"
)

// selectOption is a test hook for replacing the interactive menu.
// It returns the index of the chosen option.
var selectOption = defaultSelectOption

func defaultSelectOption(in io.Reader, w io.Writer, title string, options []string) (int, error) {
	choices := make([]huh.Option[int], len(options))
	for i, o := range options {
		choices[i] = huh.NewOption(o, i)
	}

	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(title).
				Options(choices...).
				Value(&choice),
		),
	).
		WithInput(in).
		WithOutput(w)

	// Use accessible mode for non-TTY input (e.g., piped answers).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return choice, nil
}

const (
	modeRunAll = iota
	modeProjectEnv
)

var modeOptions = []string{
	"Run everything (all collections x all environments)",
	"Run one project + environment",
}

// choosePlan asks how to run and returns the selected pairs.
func choosePlan(in io.Reader, w io.Writer, root string) ([]project.Pair, error) {
	mode, err := selectOption(in, w, "How do you want to run?", modeOptions)
	if err != nil {
		return nil, err
	}
	if mode == modeRunAll {
		return project.AllPairs(root)
	}

	projects, err := project.ListProjects(root)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, errors.NotFound("projects in", root)
	}
	pi, err := selectOption(in, w, "Which project do you want to run?", projects)
	if err != nil {
		return nil, err
	}
	proj := projects[pi]

	envs, err := project.Environments(root, proj)
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return nil, errors.NotFound("environment (.json) for project", proj)
	}
	labels := make([]string, len(envs))
	for i, e := range envs {
		labels[i] = filepath.Base(e)
	}
	ei, err := selectOption(in, w, "Which environment do you want to use?", labels)
	if err != nil {
		return nil, err
	}
	return project.PairsFor(root, proj, labels[ei])
}
