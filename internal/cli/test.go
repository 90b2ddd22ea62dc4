package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/drip/internal/harness"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Problems []string `json:"problems,omitempty"`
}

// TestResult is the JSON payload of the test command.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml | scenario-dir>",
		Short: "Run workflow scenarios",
		Long: `Execute scenario files against the real workflow with scripted
collaborators and a virtual clock, and check each scenario's expected
report. No database or mail relay is touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, cmd, args[0], filter)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "only run scenarios whose name contains this substring")

	return cmd
}

func runTest(opts *RootOptions, cmd *cobra.Command, path, filter string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	paths, err := collectScenarioFiles(path)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "collect scenarios", err)
	}

	var result TestResult
	for _, p := range paths {
		s, err := harness.LoadScenario(p)
		if err != nil {
			_ = formatter.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "load scenario", err)
		}
		if filter != "" && !strings.Contains(s.Name, filter) {
			continue
		}
		formatter.VerboseLog("running scenario %s (%s)", s.Name, p)

		run, err := harness.Run(s)
		if err != nil {
			_ = formatter.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "run scenario", err)
		}
		if opts.Verbose {
			formatter.VerboseLog("transcript for %s:\n%s", s.Name, run.Transcript)
		}

		problems := harness.Verify(s, run)
		sr := ScenarioResult{Name: s.Name, Passed: len(problems) == 0, Problems: problems}
		if sr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if len(result.Scenarios) == 0 {
		_ = formatter.Error("no scenarios matched", nil)
		return NewExitError(ExitCommandError, "no scenarios matched")
	}

	if err := formatter.Success(result, func(w io.Writer) {
		for _, sr := range result.Scenarios {
			if sr.Passed {
				fmt.Fprintf(w, "PASS %s\n", sr.Name)
				continue
			}
			fmt.Fprintf(w, "FAIL %s\n", sr.Name)
			for _, p := range sr.Problems {
				fmt.Fprintf(w, "     %s\n", p)
			}
		}
		fmt.Fprintf(w, "%d passed, %d failed\n", result.Passed, result.Failed)
	}); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// collectScenarioFiles resolves a path to the scenario files it
// names: the file itself, or every .yaml/.yml directly inside a
// directory, sorted for stable ordering.
func collectScenarioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", path)
	}
	sort.Strings(paths)
	return paths, nil
}
