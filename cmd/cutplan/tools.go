package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/props"
	"github.com/chazu/cutplan/pkg/toollib"
	"github.com/chazu/cutplan/pkg/units"
)

type toolsFlags struct {
	library string
	job     string
	units   string
}

// session builds a session holding the library's tools and, when a job is
// given, the tools that job declares.
func (f *toolsFlags) session(cmd *cobra.Command, env *appEnv) (*job.Session, units.Units, error) {
	u := env.settings.Units
	if f.units != "" {
		parsed, err := units.Parse(f.units)
		if err != nil {
			return nil, 0, err
		}
		u = parsed
	}

	s := job.NewSession(env.cfg, nil, env.logger)
	if f.job != "" {
		source, err := os.ReadFile(f.job)
		if err != nil {
			return nil, 0, fmt.Errorf("read job: %w", err)
		}
		j, evalErrs, err := s.Evaluate(string(source))
		if err != nil {
			return nil, 0, err
		}
		if len(evalErrs) > 0 {
			return nil, 0, fmt.Errorf("%s: %v", f.job, evalErrs[0])
		}
		j.Operations = nil
		for _, d := range s.Apply(j) {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", d)
		}
	}
	if f.library != "" {
		lib, err := toollib.Load(f.library)
		if err != nil {
			return nil, 0, err
		}
		for _, d := range s.LoadLibrary(lib) {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", d)
		}
	}
	return s, u, nil
}

func toolsCmd() *cobra.Command {
	var f toolsFlags

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect tool libraries",
	}
	cmd.PersistentFlags().StringVarP(&f.library, "library", "l", "", "Tool library (.yaml, .yml or .json)")
	cmd.PersistentFlags().StringVarP(&f.job, "job", "j", "", "Job script whose tools are included")
	cmd.PersistentFlags().StringVarP(&f.units, "units", "u", "", "Units for display (default from "+"CUTPLAN_UNITS"+")")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tools by number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			s, u, err := f.session(cmd, env)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tTYPE\tDIAMETER\tTITLE")
			for _, t := range s.Tools().Tools() {
				p := t.Params()
				fmt.Fprintf(tw, "%d\t%s\t%g %s\t%s\n", t.Number(), p.Type, u.FromInternal(p.Diameter), u, t.Title())
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <number>",
		Short: "Show one tool's parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("tool number must be an integer: %q", args[0])
			}
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			s, u, err := f.session(cmd, env)
			if err != nil {
				return err
			}
			t, ok := s.Tools().Find(n)
			if !ok {
				return fmt.Errorf("%w: %d", job.ErrToolNotFound, n)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d: %s\n", t.Number(), t.Title())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, p := range t.Properties(env.cfg, u) {
				fmt.Fprintf(tw, "  %s\t%s\n", p.Name, formatProperty(p, u))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write the tools as a YAML tool library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			s, u, err := f.session(cmd, env)
			if err != nil {
				return err
			}
			out, err := toollib.Export(s.Tools(), u)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	var calibratedOut string
	calibrate := &cobra.Command{
		Use:   "calibrate <number> <points.xml>",
		Short: "Set a touch probe's offsets from probed points",
		Long: `Average the points in an XML file of probed positions,

  <points><point x="0.02" y="-0.01" z="0"/>...</points>

into the touch probe's X and Y offsets. Coordinates are millimetres. With
--out the tools, calibrated probe included, are written as a tool library.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("tool number must be an integer: %q", args[0])
			}
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			s, u, err := f.session(cmd, env)
			if err != nil {
				return err
			}
			points, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("read probed points: %w", err)
			}
			defer points.Close()

			count, err := s.CalibrateProbe(n, points)
			if err != nil {
				return err
			}
			t, _ := s.Tools().Find(n)
			p := t.Params()
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s: offset x=%g y=%g %s from %d point(s)\n",
				n, t.Title(), u.FromInternal(p.ProbeOffsetX), u.FromInternal(p.ProbeOffsetY), u, count)

			if calibratedOut == "" {
				return nil
			}
			out, err := toollib.Export(s.Tools(), u)
			if err != nil {
				return err
			}
			return os.WriteFile(calibratedOut, out, 0o644)
		},
	}
	calibrate.Flags().StringVarP(&calibratedOut, "out", "o", "", "Write the tools as a YAML tool library")
	cmd.AddCommand(calibrate)

	return cmd
}

// formatProperty renders a property value for display. Lengths arrive in
// the display units already.
func formatProperty(p props.Property, u units.Units) string {
	switch p.Kind {
	case props.KindChoice:
		i := int(p.Value)
		if i >= 0 && i < len(p.Choices) {
			return p.Choices[i]
		}
		return strconv.Itoa(i)
	case props.KindInt:
		return strconv.Itoa(int(p.Value))
	case props.KindLength:
		return strconv.FormatFloat(p.Value, 'g', -1, 64) + " " + u.String()
	default:
		return strconv.FormatFloat(p.Value, 'g', -1, 64)
	}
}
