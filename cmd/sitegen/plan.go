package main

import (
	"github.com/spf13/cobra"

	"sitegen/internal/planner"
)

var planVariants bool

var planCmd = &cobra.Command{
	Use:   "plan [prompt]",
	Short: "Print the resolved intent, design tokens and section plan",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		a := newApp(cfg, log, nil)
		defer a.Close()

		mode := planner.ModeFull
		if planVariants {
			mode = planner.ModeSingle
		}
		resp, err := a.engine.Plan(cmd.Context(), requestFromFlags(cmd, args), mode)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	planCmd.Flags().BoolVar(&planVariants, "variants", false, "plan for a single variant response")
	planCmd.Flags().StringVar(&genFlags.section, "section", "", "restrict the plan to one section type")
	planCmd.Flags().Int64Var(&genFlags.seed, "seed", 0, "seed for reproducible choices")
	rootCmd.AddCommand(planCmd)
}
