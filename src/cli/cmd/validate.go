package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pierworks/stevedore/src/check"
	"github.com/pierworks/stevedore/src/output"
)

var (
	validateFile string
	validateSubs []string
)

var validateCmd = &cobra.Command{
	Use:   "validate [workspace]",
	Short: "Validate a pipeline document without running it",
	Long: `Validate a pipeline document: parse it, resolve every substitution
variable, and run the pre-run checks. Nothing executes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		if len(args) > 0 {
			workspace = args[0]
		}

		docPath := validateFile
		if docPath == "" {
			docPath = cfg.Document
		}

		resolved, _, err := loadAndResolve(docPath, workspace, validateSubs)
		if err != nil {
			return err
		}

		color := output.UseColor()
		w := os.Stdout

		engine, err := check.NewEngine(cfg.Check.Skip)
		if err != nil {
			return err
		}
		findings, err := engine.Run(context.Background(), resolved)
		if err != nil {
			return err
		}

		critical, warning, info := check.Tally(findings)

		sec := output.NewSection(w, "Validate", 0, color)
		sec.Row("%-12s%s", "document", docPath)
		sec.Row("%-12s%d", "steps", len(resolved.Steps))
		sec.Row("%-12s%d", "artifacts", len(resolved.Images))
		if len(findings) > 0 {
			sec.Separator()
			for _, f := range findings {
				loc := f.Step
				if loc == "" {
					loc = "document"
				}
				sec.Row("%-18s %-8s %s", loc, f.Severity, f.Message)
			}
		}
		sec.Separator()
		sec.Row("%d finding(s): %d critical, %d warning, %d info",
			len(findings), critical, warning, info)
		sec.Close()

		if critical > 0 {
			return fmt.Errorf("validation failed: %d critical finding(s)", critical)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "pipeline document (default from config)")
	validateCmd.Flags().StringArrayVar(&validateSubs, "substitution", nil, "set a substitution variable (_KEY=VALUE, repeatable)")

	rootCmd.AddCommand(validateCmd)
}
