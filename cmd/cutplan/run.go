package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/cutplan/pkg/document"
	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/toollib"
)

type runFlags struct {
	library string
	fix     bool
	out     string
	title   string
	save    string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.library, "library", "l", "", "Tool library (.yaml, .yml or .json) loaded before the job's own tools")
	cmd.Flags().BoolVar(&f.fix, "fix", false, "Repair what the design rules can repair")
}

func (f *runFlags) options(jobPath string) (job.Options, error) {
	opts := job.Options{Title: f.title, ApplyFixes: f.fix}
	if opts.Title == "" {
		opts.Title = strings.TrimSuffix(filepath.Base(jobPath), filepath.Ext(jobPath))
	}
	if f.library != "" {
		lib, err := toollib.Load(f.library)
		if err != nil {
			return opts, err
		}
		opts.Library = lib
	}
	return opts, nil
}

// runJob loads and runs the job at path, reporting diagnostics and
// warnings on stderr. It fails only on script errors.
func runJob(cmd *cobra.Command, path string, f *runFlags) (*job.Session, job.Result, error) {
	env, err := setup(cmd.Context())
	if err != nil {
		return nil, job.Result{}, err
	}
	defer env.Close()

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, job.Result{}, fmt.Errorf("read job: %w", err)
	}
	opts, err := f.options(path)
	if err != nil {
		return nil, job.Result{}, err
	}

	session := job.NewSession(env.cfg, nil, env.logger)
	res := session.Run(string(source), opts)

	stderr := cmd.ErrOrStderr()
	for _, e := range res.Errors {
		if e.Line > 0 {
			fmt.Fprintf(stderr, "%s:%d: %s\n", path, e.Line, e.Message)
		} else {
			fmt.Fprintf(stderr, "%s: %s\n", path, e.Message)
		}
	}
	if !res.OK() {
		return nil, res, fmt.Errorf("%s: %d script error(s)", path, len(res.Errors))
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(stderr, "skipped: %s\n", d)
	}
	for _, w := range res.Warnings {
		fmt.Fprint(stderr, w)
	}
	return session, res, nil
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <job>",
		Short: "Run a job script and emit its program",
		Long: `Evaluate a job script, derive every operation's parameters, check the
design rules and write the program script.

Design rule warnings are printed to stderr and do not stop the program from
being written. Use --fix to let the rules raise clearance heights that sit
below the start depth.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, res, err := runJob(cmd, args[0], &f)
			if err != nil {
				return err
			}

			if f.save != "" {
				if err := document.SaveFile(f.save, session); err != nil {
					return fmt.Errorf("save document: %w", err)
				}
			}
			if f.out == "" || f.out == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), res.Program)
				return err
			}
			return os.WriteFile(f.out, []byte(res.Program), 0o644)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write the program here instead of stdout")
	cmd.Flags().StringVar(&f.title, "title", "", "Program title (default: the job file name)")
	cmd.Flags().StringVar(&f.save, "save", "", "Also save the derived job as an XML document")
	return cmd
}

func validateCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "validate <job>",
		Short: "Check a job against the design rules",
		Long: `Evaluate a job script and run the design rules over every operation.

Exits non-zero when any warning remains unrepaired.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := runJob(cmd, args[0], &f)
			if err != nil {
				return err
			}
			n := res.Report.Warnings()
			fmt.Fprintf(cmd.OutOrStdout(), "%d operation(s), %d warning(s)\n", len(res.Report.Results), n)
			if n > 0 {
				return fmt.Errorf("%d design rule warning(s)", n)
			}
			return nil
		},
	}

	f.register(cmd)
	return cmd
}
