package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sitegen/internal/orchestrator"
)

var genFlags struct {
	variants     bool
	variantIndex int
	count        int
	section      string
	provider     string
	model        string
	brand        string
	seed         int64
	plan         []string
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a page or section variants and print them as JSON",
	Example: `  sitegen generate "a landing page for a fitness app"
  sitegen generate --variants --section pricing "pricing for a design tool"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if err := cfg.RequireProviders(); err != nil {
			return err
		}
		a := newApp(cfg, log, nil)
		defer a.Close()

		req := requestFromFlags(cmd, args)
		var resp *orchestrator.Response
		if genFlags.variants {
			resp, err = a.engine.GenerateVariants(cmd.Context(), req)
		} else {
			resp, err = a.engine.GeneratePage(cmd.Context(), req)
		}
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if !resp.Success && resp.Error != nil {
			return fmt.Errorf("generation failed: %w", resp.Error)
		}
		return nil
	},
}

func requestFromFlags(cmd *cobra.Command, args []string) orchestrator.Request {
	req := orchestrator.Request{
		Prompt:       strings.Join(args, " "),
		SectionType:  genFlags.section,
		VariantCount: genFlags.count,
		Provider:     genFlags.provider,
		Model:        genFlags.model,
		Brand:        genFlags.brand,
		Seed:         genFlags.seed,
		SectionPlan:  genFlags.plan,
	}
	if cmd.Flags().Changed("variant-index") {
		i := genFlags.variantIndex
		req.VariantIndex = &i
	}
	return req
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := generateCmd.Flags()
	f.BoolVar(&genFlags.variants, "variants", false, "generate alternative variants instead of a page")
	f.IntVar(&genFlags.variantIndex, "variant-index", 0, "regenerate only the variant at this index")
	f.IntVarP(&genFlags.count, "count", "n", 0, "number of variants (defaults to generation.default_variants)")
	f.StringVar(&genFlags.section, "section", "", "restrict generation to one section type")
	f.StringVar(&genFlags.provider, "provider", "", "preferred provider")
	f.StringVar(&genFlags.model, "model", "", "model for the preferred provider")
	f.StringVar(&genFlags.brand, "brand", "", "brand name used in place of placeholder copy")
	f.Int64Var(&genFlags.seed, "seed", 0, "seed for reproducible choices (random when zero)")
	f.StringSliceVar(&genFlags.plan, "plan", nil, "explicit section plan, e.g. hero,features,footer")
	rootCmd.AddCommand(generateCmd)
}
