package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"testagent/internal/gateway"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
)

// errAborted is returned when the user leaves an interactive prompt.
var errAborted = errors.New("aborted")

// confirmAction asks a yes/no question on in and defaults to no.
func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// prompter reads wizard answers line by line.
type prompter struct {
	rl *readline.Instance
}

func newPrompter(in io.Reader, out, errOut io.Writer) (*prompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryLimit:    -1,
		Stdin:           io.NopCloser(in),
		Stdout:          out,
		Stderr:          errOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &prompter{rl: rl}, nil
}

// Ask prompts for one value. An empty answer keeps def.
func (p *prompter) Ask(label, def string) (string, error) {
	prompt := label + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, def)
	}
	p.rl.SetPrompt(text.FgHiCyan.Sprint(prompt))

	line, err := p.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
		return "", errAborted
	case err != nil:
		return "", fmt.Errorf("readline error: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *prompter) Close() {
	_ = p.rl.Close()
}

// isInteractive reports whether stdin is a terminal.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// startSpinner shows suffix next to a spinner on stderr until the returned
// stop function is called. It is a no-op with --quiet or structured output.
func (a *application) startSpinner(suffix string) *spinner.Spinner {
	if flagQuiet || a.printer.Structured() {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + suffix
	s.Start()
	return s
}

func stopSpinner(s *spinner.Spinner, err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗") + s.Suffix + "\n"
	} else {
		s.FinalMSG = text.FgGreen.Sprint("✓") + s.Suffix + "\n"
	}
	s.Stop()
}

// uploadProgress renders upload percentages on the spinner suffix.
func uploadProgress(s *spinner.Spinner, label string) gateway.ProgressFunc {
	if s == nil {
		return nil
	}
	return func(pct int) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" %s %d%%", label, pct)
		s.Unlock()
	}
}
