package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/tooling"
)

var operationKeys = []string{
	ops.KeyHorizFeed, ops.KeyVertFeed, ops.KeySpindleSpeed,
	ops.KeyClearanceHeight, ops.KeyStartDepth, ops.KeyStepDown, ops.KeyFinalDepth, ops.KeyRapidDown,
}

// validKey reports whether key is a default something reads.
func validKey(key string) bool {
	if strings.HasPrefix(key, tooling.ConfigScope+"m_") {
		return true
	}
	for _, k := range operationKeys {
		if k == key {
			return true
		}
	}
	return false
}

func defaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show or change the persisted defaults for new tools and operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the defaults in effect and the stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			u := env.settings.Units
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

			p := tooling.DefaultParams(env.cfg)
			tool := tooling.New(0, p.Type, p)
			fmt.Fprintln(tw, "New tools:")
			for _, prop := range tool.Properties(env.cfg, u) {
				fmt.Fprintf(tw, "  %s\t%s\n", prop.Name, formatProperty(prop, u))
			}

			var speed ops.SpeedParams
			speed.SetInitialValues(env.cfg)
			var depth ops.DepthParams
			depth.LoadDefaults(env.cfg)
			fmt.Fprintln(tw, "New operations:")
			for _, prop := range append(speed.Properties(env.cfg, u), depth.Properties(env.cfg, u)...) {
				fmt.Fprintf(tw, "  %s\t%s\n", prop.Name, formatProperty(prop, u))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			keys, err := env.cfg.Keys(cmd.Context())
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return nil
			}
			fmt.Fprintln(out, "Stored:")
			for _, k := range keys {
				v, err := env.cfg.Store().Get(cmd.Context(), k)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s = %s\n", k, v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a default",
		Long: `Store a default read when tools or operations are created.

Tool keys are ` + tooling.ConfigScope + `m_<field> (for example
` + tooling.ConfigScope + `m_diameter); operation keys are ` + strings.Join(operationKeys, ", ") + `.
Lengths are millimetres.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !validKey(key) {
				return fmt.Errorf("unknown default %q", key)
			}
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("default %s must be a number: %q", key, value)
			}

			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.cfg.SetFloat(key, v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, strconv.FormatFloat(v, 'g', -1, 64))
			return nil
		},
	})

	return cmd
}
